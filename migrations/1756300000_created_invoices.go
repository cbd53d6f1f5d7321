package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("invoices")
		collection.Fields.Add(
			&core.SelectField{
				Name:      "network",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"mainnet", "testnet3", "regtest"},
			},
			&core.TextField{
				Name:     "address",
				Required: true,
			},
			// Satoshis as a decimal string. Number fields go through
			// float64 and cannot guarantee integer exactness.
			&core.TextField{
				Name:     "amount",
				Required: true,
			},
			&core.TextField{
				Name: "memo",
			},
			&core.JSONField{
				Name: "origin",
			},
			&core.BoolField{
				Name: "paid",
			},
			&core.DateField{
				Name: "paid_at",
			},
			&core.NumberField{
				Name:    "version",
				OnlyInt: true,
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
		)
		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("invoices")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
