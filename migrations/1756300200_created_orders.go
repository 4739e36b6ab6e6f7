package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("orders")
		collection.Fields.Add(
			&core.TextField{Name: "reference", Required: true, Max: 50},
			&core.TextField{Name: "user_id", Required: true, Max: 50},
			&core.TextField{Name: "event_id", Required: true, Max: 50},
			&core.TextField{Name: "event_date_id", Required: true, Max: 50},
			&core.NumberField{Name: "total_amount", Required: true, Min: types.Pointer(0.0)},
			&core.TextField{Name: "payment_method", Max: 100},
			&core.TextField{Name: "invoice_id", Max: 100},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "paid", "canceled", "refunded"},
			},
			&core.JSONField{Name: "ticket_ids"},
			&core.DateField{Name: "paid_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
