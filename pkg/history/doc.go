// Package history records the outcome of every validation served by Bastion.
//
// A Record holds the schema name and fingerprint, a SHA-256 of the payload
// (never the payload itself), the error count and the errors in wire form.
// Recorder writes records asynchronously; a full queue drops records rather
// than blocking validation.
//
//	rec := history.NewRecorder(store, cfg.History.Recorder, logger)
//	defer rec.Close()
//
//	_ = rec.Record(ctx, history.Outcome{
//	    Schema:  s,
//	    Payload: body,
//	    Errors:  validate.Check(s, payload),
//	    Source:  "http",
//	})
//
// Backends live in the storage subpackage and age or count based pruning in
// retention.
package history
