// Package patientdemo is a thin stand-in for a real domain repository: it
// shows how a caller wires the PHI/non-PHI column split, field encryption,
// and journal tracking together over a single SQLite handle. It is not a
// domain model — the field list is filtered to exactly the columns the
// encryption boundary names, not a full clinical schema.
package patientdemo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clinisync/core/internal/cryptofield"
	"github.com/clinisync/core/internal/syncengine"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const entityType = "patient"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS patients (
	id                   TEXT PRIMARY KEY,
	mrn_blind_index      TEXT NOT NULL,
	medical_record_number TEXT NOT NULL,
	first_name           TEXT NOT NULL,
	last_name            TEXT NOT NULL,
	date_of_birth        TEXT NOT NULL,
	address              TEXT,
	phone                TEXT,
	email                TEXT,
	emergency_contact    TEXT,
	insurance_info       TEXT,
	allergies            TEXT,
	medications          TEXT,
	problems             TEXT,
	gender               TEXT NOT NULL,
	active               INTEGER NOT NULL DEFAULT 1,
	created_at           INTEGER NOT NULL,
	updated_at           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_patients_mrn_blind_index ON patients(mrn_blind_index);
`

// phiColumns are the patients columns encrypted per spec.md §4.3. Every
// other column (id, gender, active, timestamps) stays plaintext so it can
// still be indexed and searched.
var phiColumns = []string{
	"medical_record_number", "first_name", "last_name", "date_of_birth",
	"address", "phone", "email", "emergency_contact", "insurance_info",
	"allergies", "medications", "problems",
}

// Patient is the decrypted, in-memory shape of one row.
type Patient struct {
	ID                  uuid.UUID
	MedicalRecordNumber string
	FirstName           string
	LastName            string
	DateOfBirth         string
	Address             string
	Phone               string
	Email               string
	EmergencyContact    string
	InsuranceInfo       string
	Allergies           string
	Medications         string
	Problems            string
	Gender              string
	Active              bool
}

// Repository persists Patient rows with PHI columns encrypted at rest and
// tracks every mutation in a syncengine.Engine so a real replication
// pipeline can pick the change up.
type Repository struct {
	db        *sql.DB
	engine    *syncengine.Engine
	deviceKey []byte
	hmacKey   []byte
	logger    *zap.Logger
}

// Option configures a Repository at construction time.
type Option func(*Repository)

// WithLogger attaches a zap logger; nil leaves logging disabled.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// NewRepository opens (creating if absent) the patients table against db.
// db is its own handle; pkg/clinisync opens it over the same SQLite file
// as the journal, so both tables live in one database file. deviceKey
// encrypts PHI columns;
// hmacKey drives the MRN blind index used for equality lookups without
// decrypting every row.
func NewRepository(db *sql.DB, engine *syncengine.Engine, deviceKey, hmacKey []byte, opts ...Option) (*Repository, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("patientdemo: apply schema: %w", err)
	}
	r := &Repository{db: db, engine: engine, deviceKey: deviceKey, hmacKey: hmacKey}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Repository) log() *zap.Logger {
	if r.logger != nil {
		return r.logger
	}
	return zap.NewNop()
}

// Create inserts p, encrypting its PHI columns, and tracks the mutation.
func (r *Repository) Create(ctx context.Context, p Patient) error {
	row, err := r.encryptRow(p)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO patients (
			id, mrn_blind_index, medical_record_number, first_name, last_name,
			date_of_birth, address, phone, email, emergency_contact,
			insurance_info, allergies, medications, problems,
			gender, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID.String(), cryptofield.BlindIndex(p.MedicalRecordNumber, r.hmacKey),
		row["medical_record_number"], row["first_name"], row["last_name"],
		row["date_of_birth"], row["address"], row["phone"], row["email"],
		row["emergency_contact"], row["insurance_info"], row["allergies"],
		row["medications"], row["problems"],
		p.Gender, p.Active, now, now,
	)
	if err != nil {
		return fmt.Errorf("patientdemo: insert %s: %w", p.ID, err)
	}

	return r.engine.TrackCreate(ctx, entityType, p.ID, patientPayload(p))
}

// UpdateContact changes the phone/email columns (the fields a real intake
// desk edits most often) and tracks the mutation as an UPDATE against only
// those two fields, so the resolver can merge disjoint edits to this same
// patient from another device.
func (r *Repository) UpdateContact(ctx context.Context, id uuid.UUID, phone, email string) error {
	encPhone, err := cryptofield.EncryptString(phone, r.deviceKey)
	if err != nil {
		return fmt.Errorf("patientdemo: encrypt phone: %w", err)
	}
	encEmail, err := cryptofield.EncryptString(email, r.deviceKey)
	if err != nil {
		return fmt.Errorf("patientdemo: encrypt email: %w", err)
	}

	now := time.Now().UnixMilli()
	res, err := r.db.ExecContext(ctx,
		`UPDATE patients SET phone = ?, email = ?, updated_at = ? WHERE id = ?`,
		encPhone, encEmail, now, id.String(),
	)
	if err != nil {
		return fmt.Errorf("patientdemo: update contact %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("patientdemo: patient %s not found", id)
	}

	return r.engine.TrackUpdate(ctx, entityType, id, map[string]any{
		"phone": phone,
		"email": email,
	})
}

// FindByMRN looks a patient up by medical record number via the blind
// index, then decrypts the matching row. The index narrows the scan to
// rows whose MRN hashes to the same value; the caller never needs a
// plaintext MRN column to search by MRN.
func (r *Repository) FindByMRN(ctx context.Context, mrn string) (Patient, error) {
	index := cryptofield.BlindIndex(mrn, r.hmacKey)

	row := r.db.QueryRowContext(ctx, `
		SELECT id, medical_record_number, first_name, last_name, date_of_birth,
		       address, phone, email, emergency_contact, insurance_info,
		       allergies, medications, problems, gender, active
		FROM patients WHERE mrn_blind_index = ?
	`, index)

	return r.scanAndDecrypt(row)
}

// List returns every patient row ordered by creation time, decrypting PHI
// columns as it goes. A single row whose field fails to decrypt (a
// corrupted blob, a key rotated out from under an old row) does not abort
// the query: that field is logged and the row is returned with
// cryptofield.ErrValue's text standing in for the unreadable value, so one
// bad row never hides the rest of the list.
func (r *Repository) List(ctx context.Context) ([]Patient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, medical_record_number, first_name, last_name, date_of_birth,
		       address, phone, email, emergency_contact, insurance_info,
		       allergies, medications, problems, gender, active
		FROM patients ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("patientdemo: list: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		p, err := r.scanAndDecrypt(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patientdemo: list: %w", err)
	}
	return patients, nil
}

// rowScanner is the common subset of *sql.Row and *sql.Rows that
// scanAndDecrypt needs, so FindByMRN's single-row lookup and List's
// multi-row scan share one decoding path.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanAndDecrypt(row rowScanner) (Patient, error) {
	var (
		id                                                                 string
		mrn, first, last, dob, address, phone, email, emergency, insurance string
		allergies, medications, problems, gender                          string
		active                                                            bool
	)
	if err := row.Scan(&id, &mrn, &first, &last, &dob, &address, &phone, &email,
		&emergency, &insurance, &allergies, &medications, &problems, &gender, &active); err != nil {
		return Patient{}, fmt.Errorf("patientdemo: scan: %w", err)
	}

	p := Patient{Gender: gender, Active: active}
	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return Patient{}, fmt.Errorf("patientdemo: parse id: %w", err)
	}

	encrypted := map[string]string{
		"medical_record_number": mrn, "first_name": first, "last_name": last,
		"date_of_birth": dob, "address": address, "phone": phone, "email": email,
		"emergency_contact": emergency, "insurance_info": insurance,
		"allergies": allergies, "medications": medications, "problems": problems,
	}
	decrypted := make(map[string]string, len(encrypted))
	for _, col := range phiColumns {
		plain, err := cryptofield.DecryptString(encrypted[col], r.deviceKey)
		if err != nil {
			r.log().Warn("patientdemo: field decryption failed, substituting marker value",
				zap.String("patient_id", id), zap.String("column", col), zap.Error(err))
			plain = cryptofield.ErrValue.Error()
		}
		decrypted[col] = plain
	}

	p.MedicalRecordNumber = decrypted["medical_record_number"]
	p.FirstName = decrypted["first_name"]
	p.LastName = decrypted["last_name"]
	p.DateOfBirth = decrypted["date_of_birth"]
	p.Address = decrypted["address"]
	p.Phone = decrypted["phone"]
	p.Email = decrypted["email"]
	p.EmergencyContact = decrypted["emergency_contact"]
	p.InsuranceInfo = decrypted["insurance_info"]
	p.Allergies = decrypted["allergies"]
	p.Medications = decrypted["medications"]
	p.Problems = decrypted["problems"]
	return p, nil
}

func (r *Repository) encryptRow(p Patient) (map[string]string, error) {
	plain := map[string]string{
		"medical_record_number": p.MedicalRecordNumber, "first_name": p.FirstName,
		"last_name": p.LastName, "date_of_birth": p.DateOfBirth, "address": p.Address,
		"phone": p.Phone, "email": p.Email, "emergency_contact": p.EmergencyContact,
		"insurance_info": p.InsuranceInfo, "allergies": p.Allergies,
		"medications": p.Medications, "problems": p.Problems,
	}
	row := make(map[string]string, len(plain))
	for _, col := range phiColumns {
		enc, err := cryptofield.EncryptString(plain[col], r.deviceKey)
		if err != nil {
			return nil, fmt.Errorf("patientdemo: encrypt %s: %w", col, err)
		}
		row[col] = enc
	}
	return row, nil
}

func patientPayload(p Patient) map[string]any {
	return map[string]any{
		"medical_record_number": p.MedicalRecordNumber,
		"first_name":            p.FirstName,
		"last_name":             p.LastName,
		"date_of_birth":         p.DateOfBirth,
		"address":               p.Address,
		"phone":                 p.Phone,
		"email":                 p.Email,
		"emergency_contact":     p.EmergencyContact,
		"insurance_info":        p.InsuranceInfo,
		"allergies":             p.Allergies,
		"medications":           p.Medications,
		"problems":              p.Problems,
		"gender":                p.Gender,
		"active":                p.Active,
	}
}
