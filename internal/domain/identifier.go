package domain

// Channel is the identifier type a registration or verification uses.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// Identifier is a normalized email address or phone number together with its
// channel. Value must already be canonical (lowercased email, E.164-like
// phone); all components downstream of validation assume that.
type Identifier struct {
	Channel Channel `json:"channel"`
	Value   string  `json:"value"`
}

// Key returns the channel-qualified form used as a uniqueness key in storage,
// e.g. "email#a@b.com" or "phone#+261341234567".
func (i Identifier) Key() string {
	return string(i.Channel) + "#" + i.Value
}
