package membership

import (
	"strings"

	"github.com/dalemusser/unionhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/unionhub/internal/app/system/inputval"
	"github.com/dalemusser/unionhub/internal/app/system/normalize"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileInput carries optional profile fields. A nil pointer leaves the
// field untouched; a pointer to "" clears an optional field.
type ProfileInput struct {
	FirstName             *string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName              *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Phone                 *string `json:"phone,omitempty" validate:"omitempty,phone_tr"`
	BirthDate             *string `json:"birthDate,omitempty" validate:"omitempty,birthdate,adult"`
	Gender                *string `json:"gender,omitempty" validate:"omitempty,gender"`
	NationalID            *string `json:"nationalId,omitempty" validate:"omitempty,tckn"`
	FatherName            *string `json:"fatherName,omitempty" validate:"omitempty,max=100"`
	MotherName            *string `json:"motherName,omitempty" validate:"omitempty,max=100"`
	BirthPlace            *string `json:"birthPlace,omitempty" validate:"omitempty,max=100"`
	Education             *string `json:"education,omitempty" validate:"omitempty,education"`
	InstitutionRegistryID *string `json:"institutionRegistryId,omitempty" validate:"omitempty,max=50"`
	TitleName             *string `json:"titleName,omitempty" validate:"omitempty,max=150"`
	TitleCode             *string `json:"titleCode,omitempty" validate:"omitempty,max=50"`
	City                  *string `json:"city,omitempty" validate:"omitempty,max=100"`
	District              *string `json:"district,omitempty" validate:"omitempty,max=100"`
	Address               *string `json:"address,omitempty" validate:"omitempty,max=500"`
	OtherUnionMembership  *bool   `json:"otherUnionMembership,omitempty"`
	DocumentURL           *string `json:"documentUrl,omitempty" validate:"omitempty,httpurl,max=2048"`
}

// stringField describes one string profile field for diffing and updating.
type stringField struct {
	key   string // field_changes key, matches the JSON name
	bson  string
	in    func(*ProfileInput) **string
	user  func(*models.User) *string
	clean func(string) string
}

func freeText(s string) string { return normalize.Name(htmlsanitize.Text(s)) }

func birthDate(s string) string {
	s = strings.TrimSpace(s)
	if t, ok := inputval.ParseBirthDate(s); ok {
		return t.Format(inputval.DateLayout)
	}
	return s
}

var stringFields = []stringField{
	{"firstName", "first_name", func(p *ProfileInput) **string { return &p.FirstName }, func(u *models.User) *string { return &u.FirstName }, freeText},
	{"lastName", "last_name", func(p *ProfileInput) **string { return &p.LastName }, func(u *models.User) *string { return &u.LastName }, freeText},
	{"phone", "phone", func(p *ProfileInput) **string { return &p.Phone }, func(u *models.User) *string { return &u.Phone }, normalize.Phone},
	{"birthDate", "birth_date", func(p *ProfileInput) **string { return &p.BirthDate }, func(u *models.User) *string { return &u.BirthDate }, birthDate},
	{"gender", "gender", func(p *ProfileInput) **string { return &p.Gender }, func(u *models.User) *string { return &u.Gender }, normalize.Token},
	{"nationalId", "national_id", func(p *ProfileInput) **string { return &p.NationalID }, func(u *models.User) *string { return &u.NationalID }, normalize.Digits},
	{"fatherName", "father_name", func(p *ProfileInput) **string { return &p.FatherName }, func(u *models.User) *string { return &u.FatherName }, freeText},
	{"motherName", "mother_name", func(p *ProfileInput) **string { return &p.MotherName }, func(u *models.User) *string { return &u.MotherName }, freeText},
	{"birthPlace", "birth_place", func(p *ProfileInput) **string { return &p.BirthPlace }, func(u *models.User) *string { return &u.BirthPlace }, freeText},
	{"education", "education", func(p *ProfileInput) **string { return &p.Education }, func(u *models.User) *string { return &u.Education }, normalize.Token},
	{"institutionRegistryId", "institution_registry_id", func(p *ProfileInput) **string { return &p.InstitutionRegistryID }, func(u *models.User) *string { return &u.InstitutionRegistryID }, freeText},
	{"titleName", "title_name", func(p *ProfileInput) **string { return &p.TitleName }, func(u *models.User) *string { return &u.TitleName }, freeText},
	{"titleCode", "title_code", func(p *ProfileInput) **string { return &p.TitleCode }, func(u *models.User) *string { return &u.TitleCode }, freeText},
	{"city", "city", func(p *ProfileInput) **string { return &p.City }, func(u *models.User) *string { return &u.City }, freeText},
	{"district", "district", func(p *ProfileInput) **string { return &p.District }, func(u *models.User) *string { return &u.District }, freeText},
	{"address", "address", func(p *ProfileInput) **string { return &p.Address }, func(u *models.User) *string { return &u.Address }, freeText},
}

// normalize cleans every supplied field in place.
func (p *ProfileInput) normalize() {
	for _, f := range stringFields {
		if v := *f.in(p); v != nil {
			c := f.clean(*v)
			*f.in(p) = &c
		}
	}
	if p.DocumentURL != nil {
		c := strings.TrimSpace(*p.DocumentURL)
		p.DocumentURL = &c
	}
}

// check adds violations that struct tags cannot express.
func (p *ProfileInput) check(fields map[string]string) {
	if p.FirstName != nil && *p.FirstName == "" {
		fields["firstName"] = "is required"
	}
	if p.LastName != nil && *p.LastName == "" {
		fields["lastName"] = "is required"
	}
}

// profileDiff compares the supplied fields with u. It returns the $set
// document and the field changes, both limited to fields whose value
// actually changes. DocumentURL is handled by documentChange.
func profileDiff(u *models.User, p *ProfileInput) (bson.M, map[string]models.FieldChange) {
	set := bson.M{}
	changes := map[string]models.FieldChange{}

	next := *u
	for _, f := range stringFields {
		v := *f.in(p)
		if v == nil {
			continue
		}
		old := *f.user(u)
		if *v == old {
			continue
		}
		*f.user(&next) = *v
		set[f.bson] = *v
		changes[f.key] = models.FieldChange{OldValue: old, NewValue: *v}
	}

	if p.OtherUnionMembership != nil && *p.OtherUnionMembership != u.OtherUnionMembership {
		set["other_union_membership"] = *p.OtherUnionMembership
		changes["otherUnionMembership"] = models.FieldChange{OldValue: u.OtherUnionMembership, NewValue: *p.OtherUnionMembership}
	}

	if _, ok := set["first_name"]; ok {
		set["full_name_ci"] = text.Fold(next.FullName())
	} else if _, ok := set["last_name"]; ok {
		set["full_name_ci"] = text.Fold(next.FullName())
	}
	return set, changes
}

// documentChange applies a replacement registration document to set and
// entry. The overwritten URL is kept on the entry.
func documentChange(u *models.User, url *string, set bson.M, entry *models.RegistrationLog) bool {
	if url == nil || *url == "" || *url == u.DocumentURL {
		return false
	}
	set["document_url"] = *url
	entry.DocumentURL = *url
	entry.PreviousDocumentURL = u.DocumentURL
	return true
}

// branchHex renders an optional branch id for field changes.
func branchHex(id *primitive.ObjectID) interface{} {
	if id == nil {
		return nil
	}
	return id.Hex()
}
