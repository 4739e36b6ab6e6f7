package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("events")
		collection.Fields.Add(
			&core.TextField{Name: "title", Required: true, Max: 200},
			&core.EditorField{Name: "description"},
			&core.TextField{Name: "city", Max: 100},
			&core.TextField{Name: "venue", Max: 200},
			&core.TextField{Name: "organizer_id", Max: 50},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"draft", "published", "ended"},
			},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
