package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("scanners")
		collection.Fields.Add(
			&core.TextField{Name: "label", Required: true, Max: 100},
			&core.TextField{Name: "event_id", Max: 50},
			&core.TextField{Name: "key_hash", Required: true, Max: 200},
			&core.BoolField{Name: "active"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("scanners")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
