// Package signal provides signal sources for the alarm engine.
//
// PushSource keeps the latest reading of each named signal as pushed by the
// acquisition layer. Unknown and stale signals read NaN. Status flags are
// encoded as 0/1 with Bool.
package signal
