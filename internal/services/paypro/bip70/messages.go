// Package bip70 implements the binary BIP70 message set used by the
// bitcoincash payment protocol. The messages are plain protobuf; they
// are small and fixed, so they are encoded directly with protowire
// instead of generated code.
package bip70

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Output is one required transaction output.
type Output struct {
	Amount uint64
	Script []byte
}

// PaymentDetails is the inner payload of a PaymentRequest.
type PaymentDetails struct {
	Network      string
	Outputs      []Output
	Time         uint64
	Expires      uint64
	Memo         string
	PaymentURL   string
	MerchantData []byte
}

// PaymentRequest is what a wallet fetches before paying.
type PaymentRequest struct {
	DetailsVersion    uint32
	PkiType           string
	PkiData           []byte
	SerializedDetails []byte
	Signature         []byte
}

// X509Certificates carries the signing certificate chain in PkiData.
type X509Certificates struct {
	Certificates [][]byte
}

// Payment is what a wallet posts after signing.
type Payment struct {
	MerchantData []byte
	Transactions [][]byte
	RefundTo     []Output
	Memo         string
}

// PaymentACK closes the exchange.
type PaymentACK struct {
	Payment Payment
	Memo    string
}

func (o Output) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, o.Amount)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, o.Script)
	return b
}

func unmarshalOutput(b []byte) (Output, error) {
	var o Output
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			o.Amount = v
		case 2:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			o.Script = append([]byte(nil), v...)
		}
		return nil
	})
	return o, err
}

func (d PaymentDetails) Marshal() []byte {
	var b []byte
	if d.Network != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, d.Network)
	}
	for _, out := range d.Outputs {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, out.Marshal())
	}
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, d.Time)
	if d.Expires != 0 {
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, d.Expires)
	}
	if d.Memo != "" {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendString(b, d.Memo)
	}
	if d.PaymentURL != "" {
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendString(b, d.PaymentURL)
	}
	if len(d.MerchantData) > 0 {
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, d.MerchantData)
	}
	return b
}

func UnmarshalPaymentDetails(b []byte) (PaymentDetails, error) {
	d := PaymentDetails{Network: "main"}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			v, n := protowire.ConsumeString(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			d.Network = v
		case 2:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			out, err := unmarshalOutput(v)
			if err != nil {
				return err
			}
			d.Outputs = append(d.Outputs, out)
		case 3:
			v, n := protowire.ConsumeVarint(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			d.Time = v
		case 4:
			v, n := protowire.ConsumeVarint(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			d.Expires = v
		case 5:
			v, n := protowire.ConsumeString(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			d.Memo = v
		case 6:
			v, n := protowire.ConsumeString(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			d.PaymentURL = v
		case 7:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			d.MerchantData = append([]byte(nil), v...)
		}
		return nil
	})
	return d, err
}

func (r PaymentRequest) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.DetailsVersion))
	if r.PkiType != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, r.PkiType)
	}
	if len(r.PkiData) > 0 {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, r.PkiData)
	}
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	b = protowire.AppendBytes(b, r.SerializedDetails)
	if r.Signature != nil {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Signature)
	}
	return b
}

func UnmarshalPaymentRequest(b []byte) (PaymentRequest, error) {
	r := PaymentRequest{DetailsVersion: 1, PkiType: "none"}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.DetailsVersion = uint32(v)
		case 2:
			v, n := protowire.ConsumeString(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.PkiType = v
		case 3:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.PkiData = append([]byte(nil), v...)
		case 4:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.SerializedDetails = append([]byte(nil), v...)
		case 5:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.Signature = append([]byte(nil), v...)
		}
		return nil
	})
	return r, err
}

func (c X509Certificates) Marshal() []byte {
	var b []byte
	for _, cert := range c.Certificates {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, cert)
	}
	return b
}

func (p Payment) Marshal() []byte {
	var b []byte
	if len(p.MerchantData) > 0 {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, p.MerchantData)
	}
	for _, tx := range p.Transactions {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, tx)
	}
	for _, out := range p.RefundTo {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, out.Marshal())
	}
	if p.Memo != "" {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendString(b, p.Memo)
	}
	return b
}

func UnmarshalPayment(b []byte) (Payment, error) {
	var p Payment
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			p.MerchantData = append([]byte(nil), v...)
		case 2:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			p.Transactions = append(p.Transactions, append([]byte(nil), v...))
		case 3:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			out, err := unmarshalOutput(v)
			if err != nil {
				return err
			}
			p.RefundTo = append(p.RefundTo, out)
		case 4:
			v, n := protowire.ConsumeString(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			p.Memo = v
		}
		return nil
	})
	return p, err
}

func (a PaymentACK) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, a.Payment.Marshal())
	if a.Memo != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, a.Memo)
	}
	return b
}

func UnmarshalPaymentACK(b []byte) (PaymentACK, error) {
	var a PaymentACK
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			p, err := UnmarshalPayment(v)
			if err != nil {
				return err
			}
			a.Payment = p
		case 2:
			v, n := protowire.ConsumeString(field)
			if n < 0 {
				return protowire.ParseError(n)
			}
			a.Memo = v
		}
		return nil
	})
	return a, err
}

// walkFields iterates top-level protobuf fields, handing each field's
// remaining buffer to fn and skipping unknown fields.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, field []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("bad field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(num, typ, b); err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}
