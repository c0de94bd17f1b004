package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// NotAvailable is rendered for blank fields and for an undefined average rating.
const NotAvailable = "N/A"

// Collection names as they appear on the wire and in the template context.
const (
	CollectionUsers    = "users"
	CollectionDevices  = "devices"
	CollectionReviews  = "reviews"
	CollectionFeedback = "feedback"
)

// Collections lists the four collection names in report order.
var Collections = []string{CollectionUsers, CollectionDevices, CollectionReviews, CollectionFeedback}

// Field is a loosely typed scalar from the dashboard API. Strings, numbers
// and booleans are kept as their text; null becomes blank.
type Field string

// Blank reports whether the field is empty. Whitespace is a value.
func (f Field) Blank() bool {
	return f == ""
}

// Or returns the field text, or def when the field is blank.
func (f Field) Or(def string) string {
	if f.Blank() {
		return def
	}
	return string(f)
}

// Decimal parses the field as a number. Blank or non-numeric fields yield zero.
func (f Field) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(f)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field(s)
	case data[0] == '{' || data[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*f = Field(buf.String())
	default:
		*f = Field(data)
	}
	return nil
}

func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	if node.Tag == "!!null" {
		*f = ""
		return nil
	}
	*f = Field(node.Value)
	return nil
}

// User is a dashboard account.
type User struct {
	UID          Field `json:"uid" yaml:"uid"`
	FirstName    Field `json:"first_name" yaml:"first_name"`
	LastName     Field `json:"last_name" yaml:"last_name"`
	Email        Field `json:"email" yaml:"email"`
	Location     Field `json:"location" yaml:"location"`
	Role         Field `json:"role" yaml:"role"`
	CreatedAt    Field `json:"created_at" yaml:"created_at"`
	DateModified Field `json:"dateModified" yaml:"dateModified"`
}

func (u User) fields() map[string]any {
	return map[string]any{
		"uid":          string(u.UID),
		"first_name":   string(u.FirstName),
		"last_name":    string(u.LastName),
		"email":        string(u.Email),
		"location":     string(u.Location),
		"role":         string(u.Role),
		"created_at":   string(u.CreatedAt),
		"dateModified": string(u.DateModified),
	}
}

// Device is a metering device registered to an owner.
type Device struct {
	ID           Field `json:"id" yaml:"id"`
	DeviceName   Field `json:"deviceName" yaml:"deviceName"`
	Owner        Field `json:"owner" yaml:"owner"`
	PairingCode  Field `json:"pairingCode" yaml:"pairingCode"`
	PairedAt     Field `json:"pairedAt" yaml:"pairedAt"`
	RegisteredAt Field `json:"registeredAt" yaml:"registeredAt"`
	Status       Field `json:"status" yaml:"status"`
}

// Paired reports whether the device status is "paired", ignoring case.
func (d Device) Paired() bool {
	return strings.EqualFold(string(d.Status), "paired")
}

func (d Device) fields() map[string]any {
	return map[string]any{
		"id":           string(d.ID),
		"deviceName":   string(d.DeviceName),
		"owner":        string(d.Owner),
		"pairingCode":  string(d.PairingCode),
		"pairedAt":     string(d.PairedAt),
		"registeredAt": string(d.RegisteredAt),
		"status":       string(d.Status),
	}
}

// Review is an app store style rating.
type Review struct {
	ID        Field `json:"id" yaml:"id"`
	Rating    Field `json:"rating" yaml:"rating"`
	Message   Field `json:"message" yaml:"message"`
	Email     Field `json:"email" yaml:"email"`
	CreatedAt Field `json:"created_at" yaml:"created_at"`
}

func (r Review) fields() map[string]any {
	return map[string]any{
		"id":         string(r.ID),
		"rating":     string(r.Rating),
		"message":    string(r.Message),
		"email":      string(r.Email),
		"created_at": string(r.CreatedAt),
	}
}

// Feedback is a support ticket or suggestion.
type Feedback struct {
	ID          Field `json:"id" yaml:"id"`
	Type        Field `json:"type" yaml:"type"`
	Message     Field `json:"message" yaml:"message"`
	Email       Field `json:"email" yaml:"email"`
	DateCreated Field `json:"dateCreated" yaml:"dateCreated"`
	Status      Field `json:"status" yaml:"status"`
}

func (f Feedback) fields() map[string]any {
	return map[string]any{
		"id":          string(f.ID),
		"type":        string(f.Type),
		"message":     string(f.Message),
		"email":       string(f.Email),
		"dateCreated": string(f.DateCreated),
		"status":      string(f.Status),
	}
}

// RecordSet bundles the four collections submitted for export. A nil slice
// means the collection is absent; an empty non-nil slice is present and empty.
type RecordSet struct {
	Users    []User     `json:"users" yaml:"users"`
	Devices  []Device   `json:"devices" yaml:"devices"`
	Reviews  []Review   `json:"reviews" yaml:"reviews"`
	Feedback []Feedback `json:"feedback" yaml:"feedback"`
}

// Missing returns the names of absent collections, in report order.
func (rs *RecordSet) Missing() []string {
	if rs == nil {
		return append([]string(nil), Collections...)
	}

	var missing []string
	if rs.Users == nil {
		missing = append(missing, CollectionUsers)
	}
	if rs.Devices == nil {
		missing = append(missing, CollectionDevices)
	}
	if rs.Reviews == nil {
		missing = append(missing, CollectionReviews)
	}
	if rs.Feedback == nil {
		missing = append(missing, CollectionFeedback)
	}
	return missing
}

// Normalized returns a copy where every absent collection is an empty one.
// A nil receiver yields an empty RecordSet.
func (rs *RecordSet) Normalized() *RecordSet {
	out := &RecordSet{}
	if rs != nil {
		*out = *rs
	}
	if out.Users == nil {
		out.Users = []User{}
	}
	if out.Devices == nil {
		out.Devices = []Device{}
	}
	if out.Reviews == nil {
		out.Reviews = []Review{}
	}
	if out.Feedback == nil {
		out.Feedback = []Feedback{}
	}
	return out
}

// SetCollection decodes a JSON document into the named collection. A value
// that is not an array leaves the collection absent.
func (rs *RecordSet) SetCollection(name string, data []byte) error {
	switch name {
	case CollectionUsers:
		return decodeJSONList(data, &rs.Users)
	case CollectionDevices:
		return decodeJSONList(data, &rs.Devices)
	case CollectionReviews:
		return decodeJSONList(data, &rs.Reviews)
	case CollectionFeedback:
		return decodeJSONList(data, &rs.Feedback)
	default:
		return fmt.Errorf("unknown collection %q", name)
	}
}

func (rs *RecordSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("record set: %w", err)
	}

	*rs = RecordSet{}
	for _, name := range Collections {
		if err := rs.SetCollection(name, raw[name]); err != nil {
			return fmt.Errorf("record set: %s: %w", name, err)
		}
	}
	return nil
}

func decodeJSONList[T any](data []byte, dst *[]T) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*dst = nil
		return nil
	}

	list := make([]T, 0)
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*dst = list
	return nil
}

func (rs *RecordSet) UnmarshalYAML(node *yaml.Node) error {
	*rs = RecordSet{}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("record set: line %d: expected a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		var err error
		switch key {
		case CollectionUsers:
			err = decodeYAMLList(value, &rs.Users)
		case CollectionDevices:
			err = decodeYAMLList(value, &rs.Devices)
		case CollectionReviews:
			err = decodeYAMLList(value, &rs.Reviews)
		case CollectionFeedback:
			err = decodeYAMLList(value, &rs.Feedback)
		}
		if err != nil {
			return fmt.Errorf("record set: %s: %w", key, err)
		}
	}
	return nil
}

func decodeYAMLList[T any](node *yaml.Node, dst *[]T) error {
	if node.Kind != yaml.SequenceNode {
		*dst = nil
		return nil
	}

	list := make([]T, 0, len(node.Content))
	if err := node.Decode(&list); err != nil {
		return err
	}
	*dst = list
	return nil
}

// ParseRecordSet decodes a RecordSet from JSON or YAML. The format is chosen
// by the first non-blank byte: '{' selects JSON, anything else YAML.
func ParseRecordSet(data []byte) (*RecordSet, error) {
	rs := &RecordSet{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, rs); err != nil {
			return nil, err
		}
		return rs, nil
	}

	if err := yaml.Unmarshal(trimmed, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func userMaps(users []User) []any {
	out := make([]any, len(users))
	for i, u := range users {
		out[i] = u.fields()
	}
	return out
}

func deviceMaps(devices []Device) []any {
	out := make([]any, len(devices))
	for i, d := range devices {
		out[i] = d.fields()
	}
	return out
}

func reviewMaps(reviews []Review) []any {
	out := make([]any, len(reviews))
	for i, r := range reviews {
		out[i] = r.fields()
	}
	return out
}

func feedbackMaps(feedback []Feedback) []any {
	out := make([]any, len(feedback))
	for i, f := range feedback {
		out[i] = f.fields()
	}
	return out
}
