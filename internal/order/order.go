// Package order assembles purchase-order lines from product records scraped
// by the extension's content scripts.
package order

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/acqbridge/internal/acq"
)

// ScrapedItem is the product record shape the content scripts deliver:
// title, price and currency read off the vendor page, plus the vendor code
// the extension maps the site to. Identifier carries an ISBN or similar
// when the page exposes one.
type ScrapedItem struct {
	Title      string `json:"title"`
	Price      string `json:"price"`
	Currency   string `json:"currency"`
	Vendor     string `json:"vendor"`
	Identifier string `json:"identifier,omitempty"`
}

// Options are the staff-supplied fields that augment a scraped item into a
// complete purchase-order line.
type Options struct {
	OwnerCode        string `json:"ownerCode"`
	FundCode         string `json:"fundCode"`
	LineType         string `json:"lineType,omitempty"`
	VendorAccount    string `json:"vendorAccount,omitempty"`
	InterestedUserID string `json:"interestedUserId,omitempty"`
	Note             string `json:"note,omitempty"`
}

const defaultLineType = "PRINTED_BOOK_OT"

// BuildPOLine validates the scraped item and options and assembles a
// purchase-order line ready for submission. The full price is charged to
// the single given fund. A client-side reference number is generated so
// duplicate submissions can be traced.
func BuildPOLine(item ScrapedItem, opts Options) (*acq.POLine, error) {
	if strings.TrimSpace(item.Title) == "" {
		return nil, errors.New("scraped item has no title")
	}
	if strings.TrimSpace(item.Vendor) == "" {
		return nil, errors.New("scraped item has no vendor")
	}
	if opts.OwnerCode == "" {
		return nil, errors.New("owner code is required")
	}
	if opts.FundCode == "" {
		return nil, errors.New("fund code is required")
	}

	price, err := normalizePrice(item.Price)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(item.Currency))
	if currency == "" {
		return nil, errors.New("scraped item has no currency")
	}

	lineType := opts.LineType
	if lineType == "" {
		lineType = defaultLineType
	}

	amount := acq.Amount{Sum: price, Currency: acq.CodeValue{Value: currency}}

	line := &acq.POLine{
		Owner:         acq.CodeValue{Value: opts.OwnerCode},
		Type:          acq.CodeValue{Value: lineType},
		Vendor:        acq.CodeValue{Value: item.Vendor},
		VendorAccount: opts.VendorAccount,
		Price:         amount,
		FundDistributions: []acq.FundDistribution{
			{FundCode: acq.CodeValue{Value: opts.FundCode}, Amount: amount},
		},
		ResourceMetadata: acq.ResourceMetadata{
			Title:      strings.TrimSpace(item.Title),
			Identifier: item.Identifier,
		},
		ReferenceNumber: "acqbridge-" + uuid.NewString(),
	}

	if opts.InterestedUserID != "" {
		line.InterestedUsers = []acq.InterestedUser{
			{PrimaryID: opts.InterestedUserID, NotifyOnArrival: true},
		}
	}
	if opts.Note != "" {
		line.Notes = []acq.Note{{Text: opts.Note}}
	}

	return line, nil
}

// normalizePrice turns scraped price text ("$31.99", "31,99", "1,299.00")
// into the plain decimal string the API expects.
func normalizePrice(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return "", fmt.Errorf("unparseable price %q", raw)
	}

	// a comma followed by exactly two digits at the end is a decimal comma
	if i := strings.LastIndex(s, ","); i != -1 && len(s)-i == 3 && !strings.Contains(s[i:], ".") {
		s = s[:i] + "." + s[i+1:]
	}
	s = strings.ReplaceAll(s, ",", "")

	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", fmt.Errorf("unparseable price %q", raw)
	}
	return s, nil
}
