package dolibarr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ID is a Dolibarr row key. The API serialises keys either as JSON numbers or
// as numeric strings; both decode here, null and "" decode to 0.
type ID int64

// UnmarshalJSON accepts 12, "12", null and "".
func (id *ID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("%w: malformed id %s", ErrUnexpectedResponse, raw)
		}
		raw = strings.TrimSpace(unquoted)
	}
	if raw == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: id %q is not an integer", ErrUnexpectedResponse, raw)
	}
	*id = ID(n)
	return nil
}

// MarshalJSON always emits a JSON number.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(id), 10)), nil
}

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// Amount is a decimal money or quantity field. Dolibarr leaves unset numerics
// as "" or null; both read as zero.
type Amount struct {
	decimal.Decimal
}

// NewAmount parses s, e.g. "10.50000000".
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Decimal: d}, nil
}

// UnmarshalJSON accepts numbers, numeric strings, "" and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if blankNumeric(data) {
		a.Decimal = decimal.Zero
		return nil
	}
	if err := a.Decimal.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: amount %s: %v", ErrUnexpectedResponse, data, err)
	}
	return nil
}

// NullAmount is an Amount that keeps "unset" apart from zero.
type NullAmount struct {
	decimal.NullDecimal
}

// UnmarshalJSON reads "" and null as unset.
func (a *NullAmount) UnmarshalJSON(data []byte) error {
	if blankNumeric(data) {
		a.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	if err := a.NullDecimal.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: amount %s: %v", ErrUnexpectedResponse, data, err)
	}
	return nil
}

func blankNumeric(data []byte) bool {
	raw := strings.TrimSpace(string(data))
	return raw == "null" || raw == `""`
}

// Product mirrors the product object of the Dolibarr API.
type Product struct {
	ID          ID         `json:"id,omitempty"`
	RowID       ID         `json:"rowid,omitempty"`
	Ref         string     `json:"ref"`
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Barcode     string     `json:"barcode,omitempty"`
	Price       Amount     `json:"price"`
	PriceTTC    Amount     `json:"price_ttc"`
	VATRate     Amount     `json:"tva_tx"`
	Status      string     `json:"status,omitempty"`
	StatusBuy   string     `json:"status_buy,omitempty"`
	StockReal   NullAmount `json:"stock_reel"`
	Type        string     `json:"type,omitempty"`
}

// Key returns the primary key used on the update path: rowid when set, id otherwise.
func (p *Product) Key() ID {
	if p.RowID != 0 {
		return p.RowID
	}
	return p.ID
}

// CustomerData is the subset of a Dolibarr thirdparty this client reads and replaces.
type CustomerData struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Zip     string `json:"zip"`
	Town    string `json:"town"`
}

// Document is an order or an invoice.
type Document struct {
	ID       ID     `json:"id"`
	Ref      string `json:"ref"`
	TotalTTC Amount `json:"total_ttc"`
	Lines    []Line `json:"lines"`
}

// Line is one row of a Document.
type Line struct {
	ID        ID     `json:"id"`
	Quantity  Amount `json:"qty"`
	ProductID ID     `json:"fk_product"`
}
