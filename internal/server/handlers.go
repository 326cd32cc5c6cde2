package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/toyz/annotate/internal/utils"
	"github.com/toyz/annotate/pkg/annotations"
)

// ParseRequest is the body of POST /v1/parse
type ParseRequest struct {
	// Doc is the documentation text to parse
	Doc string `json:"doc"`
	// Source labels the text in error messages
	Source string `json:"source"`
	// Line and Column anchor the text in its origin; Line defaults to 1
	Line   int `json:"line"`
	Column int `json:"column"`

	Aliases []AliasRequest `json:"aliases"`
	Ignore  []string       `json:"ignore"`

	// Name restricts the parse to one annotation type
	Name string `json:"name"`
}

// AliasRequest maps a written name prefix to a canonical prefix
type AliasRequest struct {
	Prefix    string `json:"prefix"`
	Canonical string `json:"canonical"`
}

// ParseResponse is the answer to a successful parse
type ParseResponse struct {
	Annotations []AnnotationResponse `json:"annotations"`
}

// AnnotationResponse describes one parsed annotation. Records report their
// members, other objects are returned as they marshal.
type AnnotationResponse struct {
	Name    string            `json:"name"`
	RawName string            `json:"rawName,omitempty"`
	Line    int               `json:"line"`
	Column  int               `json:"column"`
	Members *annotations.List `json:"members,omitempty"`
	Object  interface{}       `json:"object,omitempty"`
}

// ErrorResponse wraps an annotation error
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes an annotation error
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Suggestion string `json:"suggestion,omitempty"`
}

// TypeResponse describes a registered annotation type
type TypeResponse struct {
	Name        string `json:"name"`
	Strategy    string `json:"strategy"`
	Description string `json:"description,omitempty"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"types":  s.registry.Len(),
	})
}

func (s *Server) types(c echo.Context) error {
	names := s.registry.Names()
	types := make([]TypeResponse, 0, len(names))
	for _, name := range names {
		d, ok := s.registry.Lookup(name)
		if !ok {
			continue
		}
		types = append(types, TypeResponse{
			Name:        d.Name,
			Strategy:    d.Strategy().String(),
			Description: d.Description,
		})
	}
	return c.JSON(http.StatusOK, types)
}

func (s *Server) parse(c echo.Context) error {
	var req ParseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	results, err := s.parser.ParseResults(req.Doc, s.context(req), req.Name)
	if ctxErr := c.Request().Context().Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		var annErr annotations.AnnotationError
		if errors.As(err, &annErr) {
			s.logger.Debug("annotation error",
				zap.String("code", annErr.Code().String()),
				zap.String("source", annErr.Location().Source))
			return c.JSON(http.StatusUnprocessableEntity, errorResponse(annErr))
		}
		return err
	}

	resp := ParseResponse{Annotations: make([]AnnotationResponse, 0, len(results))}
	for _, res := range results {
		resp.Annotations = append(resp.Annotations, annotationResponse(res))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) validate(req ParseRequest) error {
	if req.Name != "" {
		if err := utils.ValidateAnnotationName("name")(req.Name); err != nil {
			return err
		}
	}
	if err := utils.ValidateEach("ignore", utils.NotEmpty("ignore"))(req.Ignore); err != nil {
		return err
	}

	positive := utils.Custom("line", "must be positive", func(n int) bool { return n > 0 })
	if req.Line != 0 {
		if err := positive(req.Line); err != nil {
			return err
		}
	}
	return utils.Custom("column", "cannot be negative", func(n int) bool { return n >= 0 })(req.Column)
}

// context builds the parse context of a request on top of the server's
// ignore list
func (s *Server) context(req ParseRequest) *annotations.Context {
	aliases := make([]annotations.Alias, len(req.Aliases))
	for i, a := range req.Aliases {
		aliases[i] = annotations.Alias{Prefix: a.Prefix, Canonical: a.Canonical}
	}

	line := req.Line
	if line == 0 {
		line = 1
	}
	source := req.Source
	if source == "" {
		source = "request"
	}

	return annotations.NewContext(
		annotations.WithAliases(aliases...),
		annotations.WithIgnored(s.config.Ignore...),
		annotations.WithIgnored(req.Ignore...),
		annotations.WithSource(source),
		annotations.WithAnchor(line, req.Column),
	)
}

func annotationResponse(res annotations.Result) AnnotationResponse {
	resp := AnnotationResponse{
		Name:   res.Name,
		Line:   res.Location.Line,
		Column: res.Location.Column,
	}
	if res.RawName != res.Name {
		resp.RawName = res.RawName
	}
	if rec, ok := res.Object.(*annotations.Record); ok {
		resp.Members = rec.Members
		if resp.Members == nil {
			resp.Members = annotations.NewList()
		}
	} else {
		resp.Object = res.Object
	}
	return resp
}

func errorResponse(err annotations.AnnotationError) ErrorResponse {
	loc := err.Location()
	return ErrorResponse{Error: ErrorBody{
		Code:       err.Code().String(),
		Message:    err.Error(),
		Line:       loc.Line,
		Column:     loc.Column,
		Suggestion: err.Suggestion(),
	}}
}
