package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("tickets")
		collection.Fields.Add(
			&core.TextField{Name: "order_id", Required: true, Max: 50},
			&core.TextField{Name: "event_id", Required: true, Max: 50},
			&core.TextField{Name: "event_date_id", Required: true, Max: 50},
			&core.NumberField{Name: "price", Required: true, Min: types.Pointer(0.0)},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "valid", "used", "cancelled"},
			},
			&core.DateField{Name: "used_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
