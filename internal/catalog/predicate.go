package catalog

import (
	"slices"
	"strings"

	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/model"
	"gorm.io/gorm"
)

// Field is a filterable column of the files table
type Field string

const (
	FieldType    Field = "type"
	FieldName    Field = "name"
	FieldOwner   Field = "owner_id"
	FieldBucket  Field = "bucket_file_id"
	FieldState   Field = "state"
	FieldAccount Field = "account_id"
)

func (f Field) column() string {
	return "files." + string(f)
}

func (f Field) value(file *model.File) string {
	switch f {
	case FieldType:
		return file.Type
	case FieldName:
		return file.Name
	case FieldOwner:
		return file.OwnerID
	case FieldBucket:
		return file.BucketFileID
	case FieldState:
		return file.State
	case FieldAccount:
		return file.AccountID
	}

	return ""
}

// Expr is a predicate over files. Every Expr can be rendered to SQL for the
// database and evaluated in memory against a loaded file, and both forms must
// agree.
type Expr interface {
	// SQL renders the predicate as a where clause with ? placeholders
	SQL() (string, []any)
	Match(f *model.File) bool
}

// Apply adds the predicate to a query on the files table
func Apply(db *gorm.DB, e Expr) *gorm.DB {
	query, args := e.SQL()
	return db.Where(query, args...)
}

type constExpr bool

func (c constExpr) SQL() (string, []any) {
	if c {
		return "1 = 1", nil
	}
	return "1 = 0", nil
}

func (c constExpr) Match(*model.File) bool { return bool(c) }

// True matches every file, False matches none
var (
	True  Expr = constExpr(true)
	False Expr = constExpr(false)
)

type eqExpr struct {
	field Field
	value string
}

// Eq matches files whose field equals value exactly
func Eq(field Field, value string) Expr {
	return eqExpr{field, value}
}

func (e eqExpr) SQL() (string, []any) {
	return e.field.column() + " = ?", []any{e.value}
}

func (e eqExpr) Match(f *model.File) bool {
	return e.field.value(f) == e.value
}

type inExpr struct {
	field  Field
	values []string
}

// In matches files whose field is one of values. An empty list matches
// nothing.
func In(field Field, values ...string) Expr {
	if len(values) == 0 {
		return False
	}
	return inExpr{field, values}
}

func (e inExpr) SQL() (string, []any) {
	return e.field.column() + " IN ?", []any{e.values}
}

func (e inExpr) Match(f *model.File) bool {
	return slices.Contains(e.values, e.field.value(f))
}

type containsExpr struct {
	field Field
	text  string
}

// ContainsFold matches files whose field contains text, ignoring case
func ContainsFold(field Field, text string) Expr {
	return containsExpr{field, strings.ToLower(text)}
}

func (e containsExpr) SQL() (string, []any) {
	return "LOWER(" + e.field.column() + ") LIKE ? ESCAPE '\\'", []any{likePattern(e.text)}
}

func (e containsExpr) Match(f *model.File) bool {
	return strings.Contains(strings.ToLower(e.field.value(f)), e.text)
}

type keywordExpr struct {
	text string
}

// KeywordContains matches files with at least one keyword containing text,
// ignoring case. Keywords never contain commas, so text with a comma can't
// match anything.
func KeywordContains(text string) Expr {
	if strings.Contains(text, ",") {
		return False
	}
	return keywordExpr{strings.ToLower(text)}
}

// Keywords are stored joined by commas, and since text has no comma a
// substring match on the column is a match on a single keyword.
func (e keywordExpr) SQL() (string, []any) {
	return "LOWER(files.keywords) LIKE ? ESCAPE '\\'", []any{likePattern(e.text)}
}

func (e keywordExpr) Match(f *model.File) bool {
	for _, k := range f.Keywords {
		if strings.Contains(strings.ToLower(k), e.text) {
			return true
		}
	}

	return false
}

type sharedExpr struct {
	email string
	tiers []string
}

// SharedWith matches files with a grant for email whose tier allows the
// action.
func SharedWith(email string, a access.Action) Expr {
	email = model.NormalizeEmail(email)
	tiers := access.TierNamesAllowing(a)
	if email == "" || len(tiers) == 0 {
		return False
	}

	return sharedExpr{email, tiers}
}

func (e sharedExpr) SQL() (string, []any) {
	return "EXISTS (SELECT 1 FROM file_grants WHERE file_grants.file_id = files.id AND file_grants.email = ? AND LOWER(file_grants.access) IN ?)",
		[]any{e.email, e.tiers}
}

func (e sharedExpr) Match(f *model.File) bool {
	g, ok := f.GrantFor(e.email)
	if !ok {
		return false
	}

	return slices.Contains(e.tiers, strings.ToLower(strings.TrimSpace(g.Access)))
}

type joinExpr struct {
	op    string
	exprs []Expr
}

// And matches files matching every expression. With no expressions it
// matches everything.
func And(exprs ...Expr) Expr {
	if len(exprs) == 0 {
		return True
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return joinExpr{"AND", exprs}
}

// Or matches files matching any expression. With no expressions it matches
// nothing.
func Or(exprs ...Expr) Expr {
	if len(exprs) == 0 {
		return False
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return joinExpr{"OR", exprs}
}

func (e joinExpr) SQL() (string, []any) {
	parts := make([]string, 0, len(e.exprs))
	args := []any{}

	for _, x := range e.exprs {
		q, a := x.SQL()
		parts = append(parts, "("+q+")")
		args = append(args, a...)
	}

	return strings.Join(parts, " "+e.op+" "), args
}

func (e joinExpr) Match(f *model.File) bool {
	for _, x := range e.exprs {
		m := x.Match(f)
		if e.op == "AND" && !m {
			return false
		}
		if e.op == "OR" && m {
			return true
		}
	}

	return e.op == "AND"
}

// OwnedBy matches files owned by the user. An empty id matches nothing.
func OwnedBy(userID string) Expr {
	if userID == "" {
		return False
	}
	return Eq(FieldOwner, userID)
}

// Permits matches exactly the files on which access.CanPerform allows the
// action for the requester.
func Permits(r access.Requester, a access.Action) Expr {
	return Or(OwnedBy(r.UserID), SharedWith(r.Email, a))
}

// Visible matches the files the requester may see at all
func Visible(r access.Requester) Expr {
	return Permits(r, access.ActionView)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
