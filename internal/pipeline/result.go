package pipeline

const (
	OutcomeSuccess             = "SUCCESS"
	OutcomeConfigIncomplete    = "CONFIG-INCOMPLETE"
	OutcomeConnectionError     = "CONNECTION-ERROR"
	OutcomeServerError         = "SERVER-ERROR"
	OutcomeRelayRejected       = "RELAY-REJECTED"
	OutcomeMalformedResponse   = "MALFORMED-RESPONSE"
	OutcomeEmailDeliveryFailed = "EMAIL-DELIVERY-FAILED"
	OutcomeDuplicate           = "DUPLICATE"
	OutcomeAbandoned           = "ABANDONED"
)

// Result is the terminal state reached for one message.
type Result struct {
	Outcome    string
	Reason     string
	StatusCode int
}

func (r Result) Failed() bool {
	return r.Outcome != OutcomeSuccess
}
