package validation

import (
	"github.com/iamfafakkk/minimalFreeRadius/internal/store"
)

var errEmptyUpdate = FieldError{Field: "body", Message: "at least one field must be provided"}

// NasCreateRequest is the body of POST /nas.
type NasCreateRequest struct {
	Name        string  `json:"name" validate:"required,alphanum,min=3,max=30"`
	IP          string  `json:"ip" validate:"required,ip"`
	Secret      string  `json:"secret" validate:"required,min=8,max=100"`
	Type        *string `json:"type" validate:"omitnil,oneof=cisco computone livingston juniper max40xx multitech netserver pathras patton portslave tc usrhiper other"`
	Ports       *int    `json:"ports" validate:"omitnil,min=1,max=65535"`
	Community   *string `json:"community" validate:"omitnil,max=50"`
	Description *string `json:"description" validate:"omitnil,max=200"`
}

// NAS returns the record to create with defaults applied.
func (r NasCreateRequest) NAS() store.NAS {
	nas := store.NAS{
		Name:   r.Name,
		IP:     r.IP,
		Secret: r.Secret,
		Type:   store.DefaultNasType,
		Ports:  store.DefaultNasPorts,
	}
	if r.Type != nil {
		nas.Type = *r.Type
	}
	if r.Ports != nil {
		nas.Ports = *r.Ports
	}
	if r.Community != nil {
		nas.Community = *r.Community
	}
	if r.Description != nil {
		nas.Description = *r.Description
	}
	return nas
}

// NasUpdateRequest is the body of PUT /nas/:id.
type NasUpdateRequest struct {
	Name        *string `json:"name" validate:"omitnil,alphanum,min=3,max=30"`
	IP          *string `json:"ip" validate:"omitnil,ip"`
	Secret      *string `json:"secret" validate:"omitnil,min=8,max=100"`
	Type        *string `json:"type" validate:"omitnil,oneof=cisco computone livingston juniper max40xx multitech netserver pathras patton portslave tc usrhiper other"`
	Ports       *int    `json:"ports" validate:"omitnil,min=1,max=65535"`
	Community   *string `json:"community" validate:"omitnil,max=50"`
	Description *string `json:"description" validate:"omitnil,max=200"`
}

func (r *NasUpdateRequest) validateFields() Errors {
	if r.Name == nil && r.IP == nil && r.Secret == nil && r.Type == nil &&
		r.Ports == nil && r.Community == nil && r.Description == nil {
		return Errors{errEmptyUpdate}
	}
	return nil
}

// Patch converts the request into a store patch.
func (r NasUpdateRequest) Patch() store.NasPatch {
	return store.NasPatch{
		Name:        r.Name,
		IP:          r.IP,
		Secret:      r.Secret,
		Type:        r.Type,
		Ports:       r.Ports,
		Community:   r.Community,
		Description: r.Description,
	}
}

// UserCreateRequest is the body of POST /users.
type UserCreateRequest struct {
	User     string  `json:"user" validate:"required,min=6,max=64"`
	Password string  `json:"password" validate:"required,min=6,max=253"`
	Profile  *string `json:"profile" validate:"omitnil,min=1,max=253"`
}

// NewUser returns the store input with the default profile applied.
func (r UserCreateRequest) NewUser() store.NewUser {
	in := store.NewUser{Username: r.User, Password: r.Password, Profile: store.DefaultProfile}
	if r.Profile != nil {
		in.Profile = *r.Profile
	}
	return in
}

// UserUpdateRequest is the body of PUT /users/:username.
type UserUpdateRequest struct {
	Password *string `json:"password" validate:"omitnil,min=6,max=253"`
	Profile  *string `json:"profile" validate:"omitnil,min=1,max=253"`
}

func (r *UserUpdateRequest) validateFields() Errors {
	if r.Password == nil && r.Profile == nil {
		return Errors{errEmptyUpdate}
	}
	return nil
}

// Patch converts the request into a store patch.
func (r UserUpdateRequest) Patch() store.UserPatch {
	return store.UserPatch{Password: r.Password, Profile: r.Profile}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AttributeAddRequest is the body of POST /users/:username/attributes.
type AttributeAddRequest struct {
	Attribute string `json:"attribute" validate:"required,max=64"`
	Op        string `json:"op" validate:"required,radius_op"`
	Value     string `json:"value" validate:"required,max=253"`
	Table     string `json:"table" validate:"omitempty,oneof=radcheck radreply"`
}

// Target returns the table to write to, radcheck when omitted.
func (r AttributeAddRequest) Target() store.AttributeTable {
	table, _ := store.ParseAttributeTable(r.Table)
	return table
}

// Row returns the attribute to insert.
func (r AttributeAddRequest) Row() store.Attribute {
	return store.Attribute{Attribute: r.Attribute, Op: r.Op, Value: r.Value}
}

// AttributeRemoveRequest is the body of DELETE /users/:username/attributes.
type AttributeRemoveRequest struct {
	Attribute string `json:"attribute" validate:"required,max=64"`
	Table     string `json:"table" validate:"omitempty,oneof=radcheck radreply"`
}

// Target returns the table to delete from, radcheck when omitted.
func (r AttributeRemoveRequest) Target() store.AttributeTable {
	table, _ := store.ParseAttributeTable(r.Table)
	return table
}
