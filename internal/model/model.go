// Package model provides data-structs for internal app-usage
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

type (
	Status    string
	Placement string
)

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusFailed     Status = "failed"
	StatusDone       Status = "done"
)

var StatusMap = map[Status]bool{
	StatusCreated:    true,
	StatusInProgress: true,
	StatusFailed:     true,
	StatusDone:       true,
}

const (
	PlaceSingle Placement = "single"
	PlaceGrid   Placement = "grid"
)

var PlacementsMap = map[Placement]bool{
	PlaceSingle: true,
	PlaceGrid:   true,
}

// OrphanAge - через сколько без обновлений задача в `created`/`in_progress` считается брошенной
const OrphanAge = 10 * time.Minute

// IsOrphan reports whether an unfinished task has not been touched for OrphanAge.
func (t *Task) IsOrphan(now time.Time) bool {
	if t.Status != StatusCreated && t.Status != StatusInProgress {
		return false
	}
	touched := t.UpdatedAt
	if touched == nil {
		touched = t.CreatedAt
	}
	return touched != nil && now.Sub(*touched) >= OrphanAge
}

//---------------------

type Task struct {
	UID          uuid.UUID   `json:"uid"`
	SourceKey    string      `json:"-"`
	WatermarkKey string      `json:"-"`
	ResultKey    string      `json:"-"`
	Placement    Placement   `json:"position"`
	X            *int        `json:"x_axis,omitempty"`
	Y            *int        `json:"y_axis,omitempty"`
	Percent      int         `json:"percent"`
	UseAlpha     bool        `json:"alpha"`
	ColorKey     *RGB        `json:"color,omitempty"`
	Format       string      `json:"format"`
	Status       Status      `json:"status,omitempty"`
	ErrMsg       StringSlice `json:"error,omitempty"`
	CreatedAt    *time.Time  `json:"created_at,omitempty"`
	UpdatedAt    *time.Time  `json:"updated_at,omitempty"`
}

//-------------------

type ListRequest struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

const (
	ByUUID    = "uid"
	ByCreated = "created"
	OrderASC  = "ascend"
	OrderDESC = "descend"
)

type TaskCreateData struct {
	Placement       string
	X               *int
	Y               *int
	Percent         *int
	UseAlpha        bool
	ColorKey        *RGB
	Format          string
	OrigImg         multipart.File
	OrigContentType string
	OrigImgSize     int64
	WMImg           multipart.File
	WMContentType   string
	WMImgSize       int64
}

// ------------------

var (
	ErrCommon500           error = errors.New("something went wrong. Try again later")     // 500
	ErrIncorrectQuery      error = errors.New("incorrect query parameters")                // 400
	ErrIncorrectID         error = errors.New("incorrect task UUID")                       // 400
	ErrTaskNotFound        error = errors.New("specified task UUID doesn't exist")         // 404
	ErrResultNotReady      error = errors.New("requested image is not processed yet")      // 404
	ErrEmptySource         error = errors.New("empty/incorrect source image provided")     // 400
	ErrEmptyWMark          error = errors.New("empty/incorrect watermark provided")        // 400
	ErrIncorrectPlacement  error = errors.New("incorrect position method or axis values")  // 400
	ErrIncorrectPercent    error = errors.New("transparency percentage must be 0-100")     // 400
	ErrIncorrectColorKey   error = errors.New("transparency color input is invalid")       // 400
	ErrConflictingMask     error = errors.New("alpha channel and color key are exclusive") // 400
	ErrIncorrectFormat     error = errors.New(`output format must be "jpg" or "png"`)      // 400
	ErrUnsupportedWMFormat error = errors.New("unsupported watermark-image format")        // 400
	ErrUnsupportedFormat   error = errors.New("unsupported base image format")             // 400
	ErrWatermarkTooLarge   error = errors.New("the watermark's dimensions are larger")     // 400
	ErrNoAlphaChannel      error = errors.New("watermark has no alpha channel to use")     // 400
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	BMP  = "image/bmp"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	BMP:  ".bmp",
}

var InImageTypeMap = map[string]bool{
	JPEG: true,
	PNG:  true,
	BMP:  true,
}

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.PNG:  PNG,
}

//--------------------

// RGB is a transparency color key, stored as JSONB.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c *RGB) Scan(value any) error {
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for RGB")
	}

	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to RGB: %w", err)
	}
	return nil
}

func (c *RGB) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	res, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RGB to JSONB: %w", err)
	}
	return res, nil
}

type StringSlice []string

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for StringSlice")
	}

	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to []StringSlice: %w", err)
	}
	return nil
}

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 || s == nil {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal []StringSlice to JSONB: %w", err)
	}

	return res, nil
}
