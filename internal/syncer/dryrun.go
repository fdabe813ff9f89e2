package syncer

import "context"

// dryRunResponse is what Tally returns for a single successful import.
const dryRunResponse = "<RESPONSE><CREATED>1</CREATED><ALTERED>0</ALTERED><ERRORS>0</ERRORS></RESPONSE>"

// DryRunSender sends nothing and answers every request as accepted.
type DryRunSender struct {
	Log Logger
}

// Send logs the request body and returns a canned accepted response.
func (d DryRunSender) Send(_ context.Context, body []byte) ([]byte, error) {
	if d.Log != nil {
		d.Log.Infof("[dry-run] not sent (%d bytes):\n%s", len(body), body)
	}
	return []byte(dryRunResponse), nil
}
