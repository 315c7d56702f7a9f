package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrInvalidTime      = errors.New("time_minutes must be a positive integer")
	ErrInvalidPrice     = errors.New("price must be a non-negative decimal with at most two decimal places")
	ErrPriceOutOfRange  = errors.New("price exceeds the maximum of 999.99")
	ErrEmptyTitleUpdate = errors.New("title may not be blank")
)

// priceRegex accepts plain decimals like "5", "2.5" or "2.50".
var priceRegex = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Recipe is owned by exactly one user. Tags and Ingredients always share the
// recipe's owner.
type Recipe struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	TimeMinutes int
	Price       string // normalized decimal string with two places, e.g. "2.50"
	Link        string
	Image       string // storage key, empty when no image uploaded
	CreatedAt   time.Time

	Tags        []*Attribute
	Ingredients []*Attribute
}

// NewRecipe creates a recipe for the given owner, validating every field.
func NewRecipe(userID int64, title, description string, timeMinutes int, price, link string) (*Recipe, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if timeMinutes <= 0 {
		return nil, ErrInvalidTime
	}

	normalizedPrice, err := ParsePrice(price)
	if err != nil {
		return nil, err
	}

	return &Recipe{
		UserID:      userID,
		Title:       title,
		Description: description,
		TimeMinutes: timeMinutes,
		Price:       normalizedPrice,
		Link:        link,
		CreatedAt:   time.Now(),
		Tags:        []*Attribute{},
		Ingredients: []*Attribute{},
	}, nil
}

// ParsePrice validates a decimal price string and normalizes it to two
// decimal places. The store column is NUMERIC(5,2), so values above 999.99
// are rejected here rather than by a constraint violation.
func ParsePrice(price string) (string, error) {
	if !priceRegex.MatchString(price) {
		return "", ErrInvalidPrice
	}

	whole, frac, found := strings.Cut(price, ".")
	if !found {
		frac = ""
	}

	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	if len(whole) > 3 {
		return "", ErrPriceOutOfRange
	}

	for len(frac) < 2 {
		frac += "0"
	}

	return fmt.Sprintf("%s.%s", whole, frac), nil
}
