// Package schema describes the parameters a scenario kind accepts and checks
// parameter maps against that description.
//
// Every field is optional, since absent parameters fall back to the kind's
// default. A check reports parameters the kind does not know and values of the
// wrong type:
//
//	s := schema.Schema{
//	    "value": schema.Int(),
//	    "mode":  schema.OneOf("sequential", "parallel"),
//	}
//
//	if err := schema.Check(s, map[string]any{"value": "high"}); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        fmt.Println(e)
//	    }
//	}
//
// Checks are stricter than decoding: the generator accepts "75" for an int and
// falls back to defaults on bad input, while a check flags both.
package schema
