package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/models"
)

var ErrUploadRejected = errors.New("upload rejected")

// ValidateUpload enforces the size cap and the filename blocklist on CSV and
// demo uploads.
func ValidateUpload(fh *multipart.FileHeader, maxSize int64) error {
	if fh.Size > maxSize {
		return fmt.Errorf("%w: file is too big, max size is %d bytes", ErrUploadRejected, maxSize)
	}
	if strings.Contains(fh.Filename, "virus") {
		return fmt.Errorf("%w: filename must not contain \"virus\"", ErrUploadRejected)
	}
	return nil
}

type productSetter func(p *models.Product, value string) error

var productColumnSetters = map[string]productSetter{
	"name": func(p *models.Product, v string) error {
		p.Name = v
		return nil
	},
	"description": func(p *models.Product, v string) error {
		p.Description = v
		return nil
	},
	"price": func(p *models.Product, v string) error {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("price %q: %w", v, err)
		}
		p.Price = d
		return nil
	},
	"discount": func(p *models.Product, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("discount %q: %w", v, err)
		}
		p.Discount = n
		return nil
	},
	"archived": func(p *models.Product, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("archived %q: %w", v, err)
		}
		p.Archived = b
		return nil
	},
	"created_by": func(p *models.Product, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("created_by %q: %w", v, err)
		}
		p.CreatedBy = n
		return nil
	},
	"preview": func(p *models.Product, v string) error {
		p.Preview = v
		return nil
	},
}

var productColumnAliases = map[string]string{
	"descriptions":  "description",
	"created_by_id": "created_by",
}

func readHeader(cr *csv.Reader) ([]string, error) {
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, invalidf("csv file is empty")
	}
	if err != nil {
		return nil, invalidf("read csv header: %v", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	return header, nil
}

// ParseProductsCSV maps every row of r onto a product. Rows without a
// created_by column are attributed to userID.
func ParseProductsCSV(r io.Reader, userID int) ([]models.Product, error) {
	cr := csv.NewReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}

	setters := make([]productSetter, len(header))
	for i, col := range header {
		if alias, ok := productColumnAliases[col]; ok {
			col = alias
		}
		s, ok := productColumnSetters[col]
		if !ok {
			return nil, invalidf("unknown product column %q", header[i])
		}
		setters[i] = s
	}

	products := []models.Product{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalidf("line %d: %v", line, err)
		}
		p := models.Product{CreatedBy: userID}
		for i, value := range record {
			if err := setters[i](&p, value); err != nil {
				return nil, invalidf("line %d: %v", line, err)
			}
		}
		if err := validateProduct(&p); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// ParseProductIDList reads the bracketed product list of an order row.
// Brackets and commas are dropped and every remaining character is taken as
// one identifier, so "[12]" yields [1 2]: ids above 9 cannot be expressed.
func ParseProductIDList(s string) ([]int, error) {
	cleaned := strings.NewReplacer("[", "", "]", "", ",", "").Replace(s)
	ids := make([]int, 0, len(cleaned))
	for _, ch := range cleaned {
		if ch < '0' || ch > '9' {
			return nil, invalidf("product list %q: %q is not a digit", s, ch)
		}
		ids = append(ids, int(ch-'0'))
	}
	return ids, nil
}

// OrderRow is one parsed line of an orders CSV file.
type OrderRow struct {
	Order      models.Order
	ProductIDs []int
}

func ParseOrdersCSV(r io.Reader) ([]OrderRow, error) {
	cr := csv.NewReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	for _, col := range header {
		switch col {
		case "delivery_address", "promocode", "user_id", "user", "product", "products":
		default:
			return nil, invalidf("unknown order column %q", col)
		}
	}

	rows := []OrderRow{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalidf("line %d: %v", line, err)
		}
		var row OrderRow
		for i, value := range record {
			switch header[i] {
			case "delivery_address":
				row.Order.DeliveryAddress = value
			case "promocode":
				row.Order.Promocode = value
			case "user_id", "user":
				id, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil {
					return nil, invalidf("line %d: user_id %q is not a number", line, value)
				}
				row.Order.UserID = id
			case "product", "products":
				ids, err := ParseProductIDList(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				row.ProductIDs = ids
			}
		}
		if row.Order.UserID == 0 {
			return nil, invalidf("line %d: user_id is required", line)
		}
		if len(row.Order.Promocode) > 20 {
			return nil, invalidf("line %d: promocode is longer than 20 characters", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteProductsCSV streams products as name,description,price,discount.
func WriteProductsCSV(w io.Writer, products []models.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "description", "price", "discount"}); err != nil {
		return err
	}
	for _, p := range products {
		if err := cw.Write([]string{p.Name, p.Description, p.Price.StringFixed(2), strconv.Itoa(p.Discount)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportOrders stores every parsed row in one transaction.
func (s *OrderService) ImportOrders(ctx context.Context, r io.Reader) ([]models.Order, error) {
	rows, err := ParseOrdersCSV(r)
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, len(rows))
	productIDs := make([][]int, len(rows))
	for i, row := range rows {
		orders[i] = row.Order
		productIDs[i] = row.ProductIDs
	}
	if err := s.orders.BulkCreate(ctx, orders, productIDs); err != nil {
		return nil, fmt.Errorf("import orders: %w", err)
	}
	return orders, nil
}

// ImportProducts parses the whole file before inserting anything.
func (s *ProductService) ImportProducts(ctx context.Context, r io.Reader, userID int) ([]models.Product, error) {
	products, err := ParseProductsCSV(r, userID)
	if err != nil {
		return nil, err
	}
	if err := s.products.BulkCreate(ctx, products); err != nil {
		return nil, fmt.Errorf("import products: %w", err)
	}
	s.invalidate(ctx)
	return products, nil
}
