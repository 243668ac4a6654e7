package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

type pgStore struct{ db *sql.DB }

func (s *pgStore) Profiles() store.Profiles       { return &profiles{db: s.db} }
func (s *pgStore) Artifacts() store.Artifacts     { return &artifacts{db: s.db} }
func (s *pgStore) Rules() store.Rules             { return &rules{db: s.db} }
func (s *pgStore) Roster() store.Roster           { return &roster{db: s.db} }
func (s *pgStore) Assignments() store.Assignments { return &assignments{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

// --- Profiles ---

type profiles struct{ db *sql.DB }

func (p *profiles) Get(ctx context.Context, userID string) (*model.Profile, error) {
	var out model.Profile
	var hobbies []byte
	row := p.db.QueryRowContext(ctx, `
        SELECT user_id, name, birthday, discipline, role, hobbies,
               likes_fantasy, likes_scifi, likes_cute, likes_minimal, hates_clowns
        FROM profiles WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.Name, &out.Birthday, &out.Discipline, &out.Role, &hobbies,
		&out.LikesFantasy, &out.LikesScifi, &out.LikesCute, &out.LikesMinimal, &out.HatesClowns); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(hobbies, &out.Hobbies); err != nil {
		return nil, fmt.Errorf("decode hobbies: %w", err)
	}
	return &out, nil
}

func (p *profiles) Upsert(ctx context.Context, in *model.Profile) (*model.Profile, error) {
	hobbies, err := json.Marshal(sliceOrEmpty(in.Hobbies))
	if err != nil {
		return nil, err
	}
	_, err = p.db.ExecContext(ctx, `
        INSERT INTO profiles (user_id, name, birthday, discipline, role, hobbies,
                              likes_fantasy, likes_scifi, likes_cute, likes_minimal, hates_clowns, update_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
        ON CONFLICT (user_id) DO UPDATE SET
            name=EXCLUDED.name, birthday=EXCLUDED.birthday, discipline=EXCLUDED.discipline,
            role=EXCLUDED.role, hobbies=EXCLUDED.hobbies,
            likes_fantasy=EXCLUDED.likes_fantasy, likes_scifi=EXCLUDED.likes_scifi,
            likes_cute=EXCLUDED.likes_cute, likes_minimal=EXCLUDED.likes_minimal,
            hates_clowns=EXCLUDED.hates_clowns, update_time=now()
    `, in.UserID, in.Name, in.Birthday, in.Discipline, in.Role, hobbies,
		in.LikesFantasy, in.LikesScifi, in.LikesCute, in.LikesMinimal, in.HatesClowns)
	if err != nil {
		return nil, err
	}
	out := *in
	return &out, nil
}

// --- Artifacts ---

type artifacts struct{ db *sql.DB }

func (a *artifacts) Get(ctx context.Context, userID, date string) (*model.Artifact, error) {
	row := a.db.QueryRowContext(ctx, `
        SELECT user_id, date, star_sign, horoscope_text, dos, donts,
               image_url, image_prompt, prompt_slots, generated_at
        FROM horoscope_artifacts WHERE user_id=$1 AND date=$2
    `, userID, date)
	return scanArtifact(row)
}

// Upsert merges on the (user_id, date) uniqueness constraint with
// preserve semantics: a writer that carries empty text keeps the
// stored text, and likewise for the image fields, so the two
// sub-generations never clobber each other.
func (a *artifacts) Upsert(ctx context.Context, in *model.Artifact) (*model.Artifact, error) {
	dos, err := json.Marshal(sliceOrEmpty(in.Dos))
	if err != nil {
		return nil, err
	}
	donts, err := json.Marshal(sliceOrEmpty(in.Donts))
	if err != nil {
		return nil, err
	}
	var slots []byte
	if in.PromptSlots != nil {
		if slots, err = json.Marshal(in.PromptSlots); err != nil {
			return nil, err
		}
	}
	generatedAt := in.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	row := a.db.QueryRowContext(ctx, `
        INSERT INTO horoscope_artifacts
            (user_id, date, star_sign, horoscope_text, dos, donts,
             image_url, image_prompt, prompt_slots, generated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (user_id, date) DO UPDATE SET
            star_sign = CASE WHEN EXCLUDED.star_sign = '' THEN horoscope_artifacts.star_sign ELSE EXCLUDED.star_sign END,
            horoscope_text = CASE WHEN EXCLUDED.horoscope_text = '' THEN horoscope_artifacts.horoscope_text ELSE EXCLUDED.horoscope_text END,
            dos = CASE WHEN EXCLUDED.horoscope_text = '' THEN horoscope_artifacts.dos ELSE EXCLUDED.dos END,
            donts = CASE WHEN EXCLUDED.horoscope_text = '' THEN horoscope_artifacts.donts ELSE EXCLUDED.donts END,
            image_url = CASE WHEN EXCLUDED.image_url = '' THEN horoscope_artifacts.image_url ELSE EXCLUDED.image_url END,
            image_prompt = CASE WHEN EXCLUDED.image_url = '' THEN horoscope_artifacts.image_prompt ELSE EXCLUDED.image_prompt END,
            prompt_slots = COALESCE(EXCLUDED.prompt_slots, horoscope_artifacts.prompt_slots),
            generated_at = EXCLUDED.generated_at
        RETURNING user_id, date, star_sign, horoscope_text, dos, donts,
                  image_url, image_prompt, prompt_slots, generated_at
    `, in.UserID, in.Date, in.StarSign, in.HoroscopeText, dos, donts,
		in.ImageURL, in.ImagePrompt, slots, generatedAt)
	return scanArtifact(row)
}

func (a *artifacts) ListDates(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := a.db.QueryContext(ctx, `
        SELECT date FROM horoscope_artifacts
        WHERE user_id = $1
        ORDER BY date DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanArtifact(row rowScanner) (*model.Artifact, error) {
	var out model.Artifact
	var dos, donts, slots []byte
	if err := row.Scan(&out.UserID, &out.Date, &out.StarSign, &out.HoroscopeText, &dos, &donts,
		&out.ImageURL, &out.ImagePrompt, &slots, &out.GeneratedAt); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(dos, &out.Dos); err != nil {
		return nil, fmt.Errorf("decode dos: %w", err)
	}
	if err := json.Unmarshal(donts, &out.Donts); err != nil {
		return nil, fmt.Errorf("decode donts: %w", err)
	}
	if len(slots) > 0 {
		out.PromptSlots = &model.PromptSlots{}
		if err := json.Unmarshal(slots, out.PromptSlots); err != nil {
			return nil, fmt.Errorf("decode prompt slots: %w", err)
		}
	}
	return &out, nil
}

// --- Rules ---

type rules struct{ db *sql.DB }

func (r *rules) ActiveRuleset(ctx context.Context) (*model.Ruleset, error) {
	var out model.Ruleset
	row := r.db.QueryRowContext(ctx, `
        SELECT ruleset_id, name, version, active, creation_time
        FROM rulesets WHERE active LIMIT 1
    `)
	if err := row.Scan(&out.RulesetID, &out.Name, &out.Version, &out.Active, &out.CreationTime); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *rules) RulesForSegments(ctx context.Context, rulesetID string, segments []model.Segment) ([]model.Rule, error) {
	if len(segments) == 0 {
		return nil, nil
	}
	args := []any{rulesetID}
	var pairs []string
	for _, s := range segments {
		args = append(args, string(s.Type), s.Value)
		pairs = append(pairs, fmt.Sprintf("($%d,$%d)", len(args)-1, len(args)))
	}
	q := fmt.Sprintf(`
        SELECT rule_id, ruleset_id, segment_type, segment_value,
               style_weights, character_weights, prompt_tags, priority
        FROM rules
        WHERE ruleset_id=$1 AND (segment_type, segment_value) IN (%s)
        ORDER BY priority DESC, rule_id ASC
    `, strings.Join(pairs, ","))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Rule
	for rows.Next() {
		var rule model.Rule
		var segType string
		var styleW, charW, tags []byte
		if err := rows.Scan(&rule.RuleID, &rule.RulesetID, &segType, &rule.Segment.Value,
			&styleW, &charW, &tags, &rule.Priority); err != nil {
			return nil, err
		}
		rule.Segment.Type = model.SegmentType(segType)
		if err := json.Unmarshal(styleW, &rule.StyleWeights); err != nil {
			return nil, fmt.Errorf("decode style weights: %w", err)
		}
		if err := json.Unmarshal(charW, &rule.CharacterWeights); err != nil {
			return nil, fmt.Errorf("decode character weights: %w", err)
		}
		if err := json.Unmarshal(tags, &rule.PromptTags); err != nil {
			return nil, fmt.Errorf("decode prompt tags: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *rules) Styles(ctx context.Context) ([]model.Style, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, label, family FROM styles ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Style
	for rows.Next() {
		var s model.Style
		if err := rows.Scan(&s.Key, &s.Label, &s.Family); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *rules) Characters(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM characters ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// --- Roster ---

type roster struct{ db *sql.DB }

func (r *roster) ListActive(ctx context.Context) ([]*model.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT user_id, name, active, is_curator FROM members WHERE active ORDER BY name
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Active, &m.IsCurator); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *roster) SetCurator(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE members SET is_curator=FALSE WHERE is_curator`); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE members SET is_curator=TRUE WHERE user_id=$1`, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return tx.Commit()
}

// --- Assignments ---

type assignments struct{ db *sql.DB }

func (a *assignments) Insert(ctx context.Context, in *model.Assignment) (*model.Assignment, error) {
	out := *in
	if out.AssignmentID == "" {
		out.AssignmentID = uuid.New().String()
	}
	_, err := a.db.ExecContext(ctx, `
        INSERT INTO curator_assignments
            (assignment_id, curator_user_id, curator_name, assignment_date,
             start_date, end_date, is_manual_override, assigned_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, out.AssignmentID, out.CuratorUserID, out.CuratorName, out.AssignmentDate,
		out.StartDate, out.EndDate, out.IsManualOverride, out.AssignedBy)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *assignments) Recent(ctx context.Context, limit int) ([]*model.Assignment, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT assignment_id, curator_user_id, curator_name, assignment_date,
               start_date, end_date, is_manual_override, assigned_by
        FROM curator_assignments
        ORDER BY assignment_date DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectAssignments(rows)
}

func (a *assignments) FindOverlapping(ctx context.Context, start, end time.Time) ([]*model.Assignment, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT assignment_id, curator_user_id, curator_name, assignment_date,
               start_date, end_date, is_manual_override, assigned_by
        FROM curator_assignments
        WHERE end_date > $1 AND start_date < $2
        ORDER BY start_date ASC
    `, start, end)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectAssignments(rows)
}

func (a *assignments) Current(ctx context.Context, at time.Time) (*model.Assignment, error) {
	row := a.db.QueryRowContext(ctx, `
        SELECT assignment_id, curator_user_id, curator_name, assignment_date,
               start_date, end_date, is_manual_override, assigned_by
        FROM curator_assignments
        WHERE start_date <= $1 AND end_date > $1
        ORDER BY start_date DESC
        LIMIT 1
    `, at)
	var out model.Assignment
	if err := row.Scan(&out.AssignmentID, &out.CuratorUserID, &out.CuratorName, &out.AssignmentDate,
		&out.StartDate, &out.EndDate, &out.IsManualOverride, &out.AssignedBy); err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func collectAssignments(rows *sql.Rows) ([]*model.Assignment, error) {
	var out []*model.Assignment
	for rows.Next() {
		var asg model.Assignment
		if err := rows.Scan(&asg.AssignmentID, &asg.CuratorUserID, &asg.CuratorName, &asg.AssignmentDate,
			&asg.StartDate, &asg.EndDate, &asg.IsManualOverride, &asg.AssignedBy); err != nil {
			return nil, err
		}
		out = append(out, &asg)
	}
	return out, rows.Err()
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
