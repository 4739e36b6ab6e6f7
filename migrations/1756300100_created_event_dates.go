package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("event_dates")
		collection.Fields.Add(
			&core.TextField{Name: "event_id", Required: true, Max: 50},
			&core.DateField{Name: "date", Required: true},
			&core.TextField{Name: "start_time", Max: 10},
			&core.TextField{Name: "end_time", Max: 10},
			&core.NumberField{Name: "price", Required: true, Min: types.Pointer(0.0)},
			&core.NumberField{Name: "capacity", Required: true, OnlyInt: true, Min: types.Pointer(1.0)},
			&core.NumberField{Name: "available", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("event_dates")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
