package mqtt

import "fmt"

// TopicPrefixUser is the base of every per-account topic.
const TopicPrefixUser = "user"

// Topics provides builders for EcoNet MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Reported("1234") // "user/1234/device/reported"
type Topics struct{}

// Reported returns the topic devices publish their state changes to.
//
// Example: user/1234/device/reported
func (Topics) Reported(accountID string) string {
	return fmt.Sprintf("%s/%s/device/reported", TopicPrefixUser, accountID)
}

// Desired returns the topic commands are published to. The cloud also
// echoes desired state here.
//
// Example: user/1234/device/desired
func (Topics) Desired(accountID string) string {
	return fmt.Sprintf("%s/%s/device/desired", TopicPrefixUser, accountID)
}

// Account returns both push topics for an account, reported first.
func (t Topics) Account(accountID string) []string {
	return []string{t.Reported(accountID), t.Desired(accountID)}
}
