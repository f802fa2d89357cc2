package server

import (
	"strconv"
	"strings"

	"agrisocial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// priceValue accepts a price sent either as a JSON number or as a string, so
// that "12.50" and 12.5 bind the same way. Parsing happens in the service.
type priceValue string

func (p *priceValue) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	*p = priceValue(raw)
	return nil
}

func (p *priceValue) UnmarshalText(b []byte) error {
	*p = priceValue(b)
	return nil
}

func (p *priceValue) ptr() *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}

// GetItems handles GET /api/marketplace/items
func (s *Server) GetItems(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	items, err := s.marketplaceService.ListItems(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(items)
}

// GetItem handles GET /api/marketplace/items/:id
func (s *Server) GetItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	item, err := s.marketplaceService.GetItem(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(item)
}

type itemRequest struct {
	Name        *string     `json:"name" form:"name"`
	Description *string     `json:"description" form:"description"`
	Price       *priceValue `json:"price" form:"price"`
	ContactInfo *string     `json:"contact_info" form:"contact_info"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateItem handles POST /api/marketplace/items with a JSON or multipart body.
func (s *Server) CreateItem(c *fiber.Ctx) error {
	var req itemRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	image, err := readUpload(c, "image")
	if err != nil {
		return respondServiceError(c, err)
	}

	item, err := s.marketplaceService.CreateItem(c.UserContext(), service.CreateItemInput{
		UserID:      currentUserID(c),
		Name:        deref(req.Name),
		Description: deref(req.Description),
		Price:       deref(req.Price.ptr()),
		ContactInfo: deref(req.ContactInfo),
		Image:       image,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateItem handles PUT /api/marketplace/items/:id
func (s *Server) UpdateItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req itemRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	image, err := readUpload(c, "image")
	if err != nil {
		return respondServiceError(c, err)
	}

	item, err := s.marketplaceService.UpdateItem(c.UserContext(), service.UpdateItemInput{
		UserID:      currentUserID(c),
		ItemID:      id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.ptr(),
		ContactInfo: req.ContactInfo,
		Image:       image,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(item)
}

// DeleteItem handles DELETE /api/marketplace/items/:id
func (s *Server) DeleteItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.marketplaceService.DeleteItem(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
