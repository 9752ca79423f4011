package enums

type ItemState string

const (
	ItemStatePending   ItemState = "pending"
	ItemStateConfirmed ItemState = "confirmed"
)
