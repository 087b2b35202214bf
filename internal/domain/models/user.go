// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a union member or a staff account (branch manager, admin, superadmin).
//
// NOTE:
//   - Status only changes through the membership state machine; every change
//     is paired with a registration log entry in the same transaction.
//   - Version increments on every committed mutation and guards concurrent writers.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email        string              `bson:"email" json:"email"`
	PasswordHash string              `bson:"password_hash" json:"-"`
	Role         Role                `bson:"role" json:"role"`
	Status       Status              `bson:"status" json:"status"`
	BranchID     *primitive.ObjectID `bson:"branch_id,omitempty" json:"branchId,omitempty"`
	IsActive     bool                `bson:"is_active" json:"isActive"`
	Version      int64               `bson:"version" json:"version"`

	FirstName  string `bson:"first_name" json:"firstName"`
	LastName   string `bson:"last_name" json:"lastName"`
	FullNameCI string `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped

	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
	BirthDate string `bson:"birth_date,omitempty" json:"birthDate,omitempty"` // YYYY-MM-DD
	Gender    string `bson:"gender,omitempty" json:"gender,omitempty"`

	NationalID            string `bson:"national_id,omitempty" json:"nationalId,omitempty"`
	FatherName            string `bson:"father_name,omitempty" json:"fatherName,omitempty"`
	MotherName            string `bson:"mother_name,omitempty" json:"motherName,omitempty"`
	BirthPlace            string `bson:"birth_place,omitempty" json:"birthPlace,omitempty"`
	Education             string `bson:"education,omitempty" json:"education,omitempty"`
	InstitutionRegistryID string `bson:"institution_registry_id,omitempty" json:"institutionRegistryId,omitempty"`
	TitleName             string `bson:"title_name,omitempty" json:"titleName,omitempty"`
	TitleCode             string `bson:"title_code,omitempty" json:"titleCode,omitempty"`
	City                  string `bson:"city,omitempty" json:"city,omitempty"`
	District              string `bson:"district,omitempty" json:"district,omitempty"`
	Address               string `bson:"address,omitempty" json:"address,omitempty"`
	OtherUnionMembership  bool   `bson:"other_union_membership" json:"otherUnionMembership"`
	DocumentURL           string `bson:"document_url,omitempty" json:"documentUrl,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
