package controller

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iyhunko/academy-backend/internal/apperror"
	"github.com/iyhunko/academy-backend/internal/storage"
)

const (
	maxMultipartMemory = 32 << 20
	imageField         = "image"
)

// bindRequest binds a multipart/form-data, application/x-www-form-urlencoded or JSON
// body into req, whose fields are pointers so that nil means absent. Blank form values
// are dropped before binding and an empty JSON body binds nothing.
func bindRequest(c *gin.Context, req any) error {
	if err := dropBlankFormValues(c); err != nil {
		return err
	}
	if c.Request.Body == nil {
		return nil
	}

	err := c.ShouldBind(req)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperror.ValidationFields("Invalid field values.", map[string]string{typeErr.Field: expected(typeErr.Type)})
	case c.ContentType() == gin.MIMEJSON:
		return apperror.Validation("Request body must be a JSON object.")
	default:
		return apperror.Validation("Invalid field values.")
	}
}

func expected(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "must be an integer"
	case reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.String:
		return "must be a string"
	default:
		return "has the wrong type"
	}
}

func dropBlankFormValues(c *gin.Context) error {
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			return apperror.Validation("Invalid multipart form.")
		}
		dropBlank(c.Request.MultipartForm.Value)
	case gin.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return apperror.Validation("Invalid form body.")
		}
	default:
		return nil
	}
	dropBlank(c.Request.PostForm)
	dropBlank(c.Request.Form)
	return nil
}

// dropBlank trims every value and removes keys whose first value is empty.
func dropBlank(values url.Values) {
	for key, vs := range values {
		if len(vs) == 0 {
			delete(values, key)
			continue
		}
		vs[0] = strings.TrimSpace(vs[0])
		if vs[0] == "" {
			delete(values, key)
		}
	}
}

// trimmed trims the bound strings, clearing the ones left empty.
func trimmed(fields ...**string) {
	for _, f := range fields {
		if *f == nil {
			continue
		}
		if v := strings.TrimSpace(**f); v != "" {
			*f = &v
		} else {
			*f = nil
		}
	}
}

// finite rejects NaN and infinities, which form values may spell out.
func finite(numbers map[string]*float64) error {
	errs := map[string]string{}
	for name, n := range numbers {
		if n != nil && (math.IsNaN(*n) || math.IsInf(*n, 0)) {
			errs[name] = "must be a number"
		}
	}
	if len(errs) > 0 {
		return apperror.ValidationFields("Invalid field values.", errs)
	}
	return nil
}

// sections is the raw JSON array of course sections. It may arrive as the array
// itself or as its string encoding, which is how multipart clients send it.
type sections string

func (s *sections) UnmarshalJSON(raw []byte) error {
	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return err
		}
		*s = sections(encoded)
		return nil
	}
	*s = sections(raw)
	return nil
}

// formImage returns the optional "image" file of a multipart request. The caller
// closes it with closeImage.
func formImage(c *gin.Context) (*storage.Upload, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	header, err := c.FormFile(imageField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return nil, nil
	case err != nil:
		return nil, apperror.Validation("File upload failed.")
	}

	file, err := header.Open()
	if err != nil {
		return nil, apperror.Validation("File upload failed.")
	}
	return &storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		BaseURL:     baseURL(c),
	}, nil
}

func closeImage(up *storage.Upload) {
	if up == nil {
		return
	}
	if closer, ok := up.Body.(io.Closer); ok {
		_ = closer.Close()
	}
}

// baseURL is the externally visible origin of the request, honouring X-Forwarded-Proto.
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		scheme = strings.TrimSpace(first)
	}
	return scheme + "://" + c.Request.Host
}
