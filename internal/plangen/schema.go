package plangen

// draftJSONSchema marshals into the JSON schema the OpenAI structured
// output must conform to. It mirrors the Draft type.
type draftJSONSchema struct{}

func (draftJSONSchema) MarshalJSON() ([]byte, error) {
	return []byte(`{
	  "type": "object",
	  "required": ["name", "days"],
	  "properties": {
		"name": {
		  "type": "string",
		  "description": "Short name for the plan, e.g. 'Push Pull Legs'"
		},
		"days": {
		  "type": "array",
		  "description": "Training days of the week",
		  "items": {
			"type": "object",
			"required": ["weekday", "name", "exercises"],
			"properties": {
			  "weekday": {
				"type": "integer",
				"description": "Calendar weekday, 0 = Sunday through 6 = Saturday",
				"minimum": 0,
				"maximum": 6
			  },
			  "name": {
				"type": "string",
				"description": "Short name for the day, e.g. 'Push Day'"
			  },
			  "exercises": {
				"type": "array",
				"description": "Exercises in workout order",
				"items": {
				  "type": "object",
				  "required": ["exercise_id", "sets", "reps_target", "notes"],
				  "properties": {
					"exercise_id": {
					  "type": "integer",
					  "description": "ID of an exercise from the catalog"
					},
					"sets": {
					  "type": "integer",
					  "description": "Number of working sets",
					  "minimum": 1,
					  "maximum": 10
					},
					"reps_target": {
					  "type": "integer",
					  "description": "Target reps per set",
					  "minimum": 1,
					  "maximum": 30
					},
					"notes": {
					  "type": "string",
					  "description": "Optional coaching cue, empty if none"
					}
				  },
				  "additionalProperties": false
				}
			  }
			},
			"additionalProperties": false
		  }
		}
	  },
	  "additionalProperties": false
	}`), nil
}
