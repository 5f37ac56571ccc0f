package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/nanny-time-tracker/internal/model"
)

const familyColumns = `f.id, f.name, f.description, f.family_code, f.created_by, f.created_at, f.updated_at`

const memberColumns = `m.id, m.family_id, m.user_id, m.role, m.hourly_rate, m.is_active, m.joined_at`

const invitationColumns = `id, family_id, email, role, hourly_rate, invited_by, status, created_at`

// FamilyCodeLength is the length of a generated family code.
const FamilyCodeLength = 8

// 32 symbols without 0/O and 1/I, so a byte maps onto it without bias.
const familyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var errCodeTaken = errors.New("family code taken")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func newFamilyCode() string {
	u := uuid.New()
	code := make([]byte, FamilyCodeLength)
	for i := range code {
		code[i] = familyCodeAlphabet[int(u[i])%len(familyCodeAlphabet)]
	}
	return string(code)
}

// NormalizeFamilyCode upper-cases a typed code and drops spaces and dashes.
func NormalizeFamilyCode(code string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(code)))
}

func scanFamily(row rowScanner) (model.Family, error) {
	var (
		f    model.Family
		desc sql.NullString
	)
	if err := row.Scan(&f.ID, &f.Name, &desc, &f.Code, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return model.Family{}, err
	}
	f.Description = stringPtr(desc)
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	return f, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

// CreateFamily stores f under a fresh family code and adds its creator as the
// first member with the given role. Rates only apply to nannies.
func (s *Store) CreateFamily(ctx context.Context, f model.Family, role model.Role, rate *float64) (model.Family, error) {
	for attempt := 0; attempt < 3; attempt++ {
		created, err := s.createFamily(ctx, f, role, rate)
		if errors.Is(err, errCodeTaken) {
			continue
		}
		return created, err
	}
	return model.Family{}, wrap(errCodeTaken, "creating family")
}

func (s *Store) createFamily(ctx context.Context, f model.Family, role model.Role, rate *float64) (model.Family, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Family{}, wrap(err, "starting family creation")
	}
	defer func() { _ = tx.Rollback() }()

	now := ts(time.Now())
	f.ID = uuid.NewString()
	f.Name = strings.TrimSpace(f.Name)
	f.Code = newFamilyCode()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO families (id, name, description, family_code, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		f.ID, f.Name, nullString(f.Description), f.Code, f.CreatedBy, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Family{}, errCodeTaken
		}
		return model.Family{}, wrap(err, "creating family")
	}

	if role != model.RoleNanny {
		rate = nil
	}
	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO family_members (id, family_id, user_id, role, hourly_rate, is_active, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), f.ID, f.CreatedBy, string(role), nullFloat(rate), true, now)
	if err != nil {
		return model.Family{}, wrap(err, "adding family creator")
	}
	if err := tx.Commit(); err != nil {
		return model.Family{}, wrap(err, "committing family creation")
	}
	return f, nil
}

// UserFamilies returns the families userID is an active member of, oldest first.
func (s *Store) UserFamilies(ctx context.Context, userID string) ([]model.Family, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+familyColumns+`
		FROM families f JOIN family_members m ON m.family_id = f.id
		WHERE m.user_id = ? AND m.is_active = ?
		ORDER BY f.created_at, f.id`), userID, true)
	if err != nil {
		return nil, wrap(err, "loading families")
	}
	defer rows.Close()

	var families []model.Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, wrap(err, "loading families")
		}
		families = append(families, f)
	}
	return families, wrap(rows.Err(), "loading families")
}

// FamilyByCode returns the family with the given join code, or ErrNotFound.
func (s *Store) FamilyByCode(ctx context.Context, code string) (model.Family, error) {
	return s.familyByCode(ctx, s.db, code)
}

func (s *Store) familyByCode(ctx context.Context, q querier, code string) (model.Family, error) {
	f, err := scanFamily(q.QueryRowContext(ctx, s.rebind(`SELECT `+familyColumns+`
		FROM families f WHERE f.family_code = ?`), NormalizeFamilyCode(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Family{}, ErrNotFound
	}
	if err != nil {
		return model.Family{}, wrap(err, "loading family")
	}
	return f, nil
}

func (s *Store) isMember(ctx context.Context, q querier, familyID, userID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM family_members
		WHERE family_id = ? AND user_id = ?`), familyID, userID).Scan(&n)
	if err != nil {
		return false, wrap(err, "checking membership")
	}
	return n > 0, nil
}

// FamilyMembers returns the active members of a family with their profile
// names, in joining order.
func (s *Store) FamilyMembers(ctx context.Context, familyID string) ([]model.FamilyMember, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+memberColumns+`,
			COALESCE(p.first_name, ''), COALESCE(p.last_name, '')
		FROM family_members m LEFT JOIN profiles p ON p.id = m.user_id
		WHERE m.family_id = ? AND m.is_active = ?
		ORDER BY m.joined_at, m.id`), familyID, true)
	if err != nil {
		return nil, wrap(err, "loading family members")
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		var (
			m    model.FamilyMember
			rate sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &rate, &m.Active, &m.JoinedAt,
			&m.FirstName, &m.LastName); err != nil {
			return nil, wrap(err, "loading family members")
		}
		m.HourlyRate = floatPtr(rate)
		m.JoinedAt = m.JoinedAt.UTC()
		members = append(members, m)
	}
	return members, wrap(rows.Err(), "loading family members")
}

// InviteToFamily records an invitation from inv.InvitedBy, who must be a
// member of the family. The address is stored lower-cased.
func (s *Store) InviteToFamily(ctx context.Context, inv model.Invitation) (model.Invitation, error) {
	ok, err := s.isMember(ctx, s.db, inv.FamilyID, inv.InvitedBy)
	if err != nil {
		return model.Invitation{}, err
	}
	if !ok {
		return model.Invitation{}, ErrNotMember
	}

	inv.ID = uuid.NewString()
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	inv.Status = model.InvitationPending
	inv.CreatedAt = ts(time.Now())
	if inv.Role != model.RoleNanny {
		inv.HourlyRate = nil
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO invitations (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		inv.ID, inv.FamilyID, inv.Email, string(inv.Role), nullFloat(inv.HourlyRate),
		inv.InvitedBy, string(inv.Status), inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Invitation{}, ErrInvitePending
		}
		return model.Invitation{}, wrap(err, "saving invitation")
	}
	return inv, nil
}

func scanInvitation(row rowScanner) (model.Invitation, error) {
	var (
		inv  model.Invitation
		rate sql.NullFloat64
	)
	err := row.Scan(&inv.ID, &inv.FamilyID, &inv.Email, &inv.Role, &rate, &inv.InvitedBy, &inv.Status, &inv.CreatedAt)
	if err != nil {
		return model.Invitation{}, err
	}
	inv.HourlyRate = floatPtr(rate)
	inv.CreatedAt = inv.CreatedAt.UTC()
	return inv, nil
}

// PendingInvitations returns the family's open invitations, oldest first.
func (s *Store) PendingInvitations(ctx context.Context, familyID string) ([]model.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+invitationColumns+`
		FROM invitations WHERE family_id = ? AND status = ?
		ORDER BY created_at, id`), familyID, string(model.InvitationPending))
	if err != nil {
		return nil, wrap(err, "loading invitations")
	}
	defer rows.Close()

	var invs []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, wrap(err, "loading invitations")
		}
		invs = append(invs, inv)
	}
	return invs, wrap(rows.Err(), "loading invitations")
}

// JoinRequest asks to add UserID to the family with Code. A pending
// invitation for Email, if any, supplies the role and rate and is accepted.
type JoinRequest struct {
	Code       string
	UserID     string
	Email      string
	Role       model.Role
	HourlyRate *float64
}

// JoinFamily adds a member through the family's code.
func (s *Store) JoinFamily(ctx context.Context, req JoinRequest) (model.Family, model.FamilyMember, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Family{}, model.FamilyMember{}, wrap(err, "starting join")
	}
	defer func() { _ = tx.Rollback() }()

	f, err := s.familyByCode(ctx, tx, req.Code)
	if err != nil {
		return model.Family{}, model.FamilyMember{}, err
	}
	member, err := s.isMember(ctx, tx, f.ID, req.UserID)
	if err != nil {
		return model.Family{}, model.FamilyMember{}, err
	}
	if member {
		return model.Family{}, model.FamilyMember{}, ErrAlreadyMember
	}

	role, rate := req.Role, req.HourlyRate
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		inv, err := scanInvitation(tx.QueryRowContext(ctx, s.rebind(`SELECT `+invitationColumns+`
			FROM invitations WHERE family_id = ? AND email = ? AND status = ?`),
			f.ID, email, string(model.InvitationPending)))
		switch {
		case err == nil:
			role, rate = inv.Role, inv.HourlyRate
			_, err = tx.ExecContext(ctx, s.rebind(`UPDATE invitations SET status = ? WHERE id = ?`),
				string(model.InvitationAccepted), inv.ID)
			if err != nil {
				return model.Family{}, model.FamilyMember{}, wrap(err, "accepting invitation")
			}
		case !errors.Is(err, sql.ErrNoRows):
			return model.Family{}, model.FamilyMember{}, wrap(err, "loading invitation")
		}
	}
	if role == "" {
		return model.Family{}, model.FamilyMember{}, ErrRoleRequired
	}
	if role != model.RoleNanny {
		rate = nil
	}

	m := model.FamilyMember{
		ID:         uuid.NewString(),
		FamilyID:   f.ID,
		UserID:     req.UserID,
		Role:       role,
		HourlyRate: rate,
		Active:     true,
		JoinedAt:   ts(time.Now()),
	}
	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO family_members (id, family_id, user_id, role, hourly_rate, is_active, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.FamilyID, m.UserID, string(m.Role), nullFloat(m.HourlyRate), m.Active, m.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Family{}, model.FamilyMember{}, ErrAlreadyMember
		}
		return model.Family{}, model.FamilyMember{}, wrap(err, "joining family")
	}
	if err := tx.Commit(); err != nil {
		return model.Family{}, model.FamilyMember{}, wrap(err, "committing join")
	}
	return f, m, nil
}
