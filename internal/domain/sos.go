package domain

// SOSRequest asks the side channel to raise an emergency notification.
type SOSRequest struct {
	Coordinate     *Coordinate
	ManualLocation string
	Intensity      string
	Cause          string
	Source         string
}

// ChannelResult is the independent outcome of one notification channel.
type ChannelResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the channel delivered.
func (r ChannelResult) OK() bool {
	return r.Status == "success"
}

// SOSResult holds both channel outcomes; they are not coordinated.
type SOSResult struct {
	SMS   ChannelResult `json:"sms"`
	Email ChannelResult `json:"email"`
}
