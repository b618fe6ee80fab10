package mirror

import "fmt"

// Identity names the mirror message. A zero field means absent.
type Identity struct {
	ChannelID uint64 `yaml:"channel_id" json:"channel_id,string"`
	MessageID uint64 `yaml:"message_id" json:"message_id,string"`
}

// Ready reports whether both ids are known, i.e. there is a message to update.
func (i Identity) Ready() bool {
	return i.ChannelID != 0 && i.MessageID != 0
}

func (i Identity) IsZero() bool {
	return i.ChannelID == 0 && i.MessageID == 0
}

func (i Identity) String() string {
	return fmt.Sprintf("%d/%d", i.ChannelID, i.MessageID)
}
