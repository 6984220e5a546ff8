package acq

// CodeValue is the vendor API's {value, desc} pair used for coded fields.
type CodeValue struct {
	Value string `json:"value"`
	Desc  string `json:"desc,omitempty"`
}

// Amount is a monetary value. Sum is a decimal string, as the API expects.
type Amount struct {
	Sum      string    `json:"sum"`
	Currency CodeValue `json:"currency"`
}

type Fund struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

type FundList struct {
	TotalRecordCount int    `json:"total_record_count"`
	Funds            []Fund `json:"fund"`
}

type CodeTableRow struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type CodeTable struct {
	Name string         `json:"name"`
	Rows []CodeTableRow `json:"row"`
}

type User struct {
	PrimaryID string `json:"primary_id"`
	FullName  string `json:"full_name"`
}

type UserList struct {
	TotalRecordCount int    `json:"total_record_count"`
	Users            []User `json:"user"`
}

type FundDistribution struct {
	FundCode CodeValue `json:"fund_code"`
	Amount   Amount    `json:"amount"`
}

type ResourceMetadata struct {
	Title      string `json:"title"`
	Identifier string `json:"identifier,omitempty"`
}

type InterestedUser struct {
	PrimaryID       string `json:"primary_id"`
	NotifyOnArrival bool   `json:"notify_receiving_activation,omitempty"`
}

type Note struct {
	Text string `json:"note_text"`
}

// POLine is a purchase-order line. Number is assigned by the API on
// creation and must be empty on submit.
type POLine struct {
	Number            string             `json:"number,omitempty"`
	Owner             CodeValue          `json:"owner"`
	Type              CodeValue          `json:"type"`
	Vendor            CodeValue          `json:"vendor"`
	VendorAccount     string             `json:"vendor_account,omitempty"`
	Price             Amount             `json:"price"`
	FundDistributions []FundDistribution `json:"fund_distribution"`
	ResourceMetadata  ResourceMetadata   `json:"resource_metadata"`
	ReferenceNumber   string             `json:"reference_number,omitempty"`
	InterestedUsers   []InterestedUser   `json:"interested_user,omitempty"`
	Notes             []Note             `json:"note,omitempty"`
}
