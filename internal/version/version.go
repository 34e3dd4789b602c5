package version

// Current is the released version of synthgen, without a leading "v".
const Current = "0.3.1"

// UserAgent is sent on outbound HTTP requests to the trainer service.
func UserAgent() string {
	return "synthgen/" + Current
}
