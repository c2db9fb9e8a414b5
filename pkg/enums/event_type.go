package enums

// PreferenceEventType labels an append-only lifecycle event.
type PreferenceEventType string

const (
	EventOrderPaid      PreferenceEventType = "order_paid"
	EventOrderCompleted PreferenceEventType = "order_completed"
	EventOrderCancelled PreferenceEventType = "order_cancelled"
	EventReview         PreferenceEventType = "review"
	EventTagInit        PreferenceEventType = "tag_init"
	EventManualEdit     PreferenceEventType = "manual_edit"
)

// String implements fmt.Stringer.
func (t PreferenceEventType) String() string {
	return string(t)
}
