package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		invoices, err := app.FindCollectionByNameOrId("invoices")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("payments")
		collection.Fields.Add(
			&core.RelationField{
				Name:          "invoice",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  invoices.Id,
				CascadeDelete: false,
			},
			&core.TextField{
				Name:     "tx_id",
				Required: true,
			},
			&core.NumberField{
				Name:    "vout",
				OnlyInt: true,
			},
			&core.DateField{
				Name:     "paid_at",
				Required: true,
			},
		)
		// One payment per invoice.
		collection.AddIndex("idx_payments_invoice", true, "invoice", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("payments")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
