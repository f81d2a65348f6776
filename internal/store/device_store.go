package store

import "context"

const (
	DeviceStatusPending  = "PENDING"
	DeviceStatusVerified = "VERIFIED"
	DeviceStatusRejected = "REJECTED"
)

// DeviceStore holds the device registry and its append-only verification
// log. The current status is materialized on the device row and advanced
// in the same transaction that appends the event, so listing never has to
// resolve a latest-row tie-break.
type DeviceStore struct {
	db DB
}

func NewDeviceStore(db DB) *DeviceStore {
	return &DeviceStore{db: db}
}

type Device struct {
	ID           string  `db:"id"`
	UserID       *string `db:"user_id"`
	DeviceID     string  `db:"device_id"`
	DeviceMeta   []byte  `db:"device_meta"`
	RegisteredAt any     `db:"registered_at"`
	CreatedBy    *string `db:"created_by"`
	Status       string  `db:"status"`
}

type DeviceVerification struct {
	ID        string  `db:"id"`
	DeviceID  string  `db:"device_id"`
	AdminID   *string `db:"admin_id"`
	Status    string  `db:"status"`
	Note      *string `db:"note"`
	CreatedAt any     `db:"created_at"`
}

type VerificationInput struct {
	ID       string
	DeviceID string
	AdminID  *string
	Status   string
	Note     *string
}

func (s *DeviceStore) Create(ctx context.Context, tx Execer, id string, userID *string, deviceID string, deviceMeta string, createdBy *string) error {
	query := `
		INSERT INTO devices (id, user_id, device_id, device_meta, created_by)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, id, userID, deviceID, deviceMeta, createdBy)
	return err
}

func (s *DeviceStore) GetByID(ctx context.Context, id string) (Device, error) {
	var row Device
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, device_id, device_meta, registered_at, created_by, status
		FROM devices
		WHERE id = $1
	`, id)
	if err != nil {
		return Device{}, err
	}
	return row, nil
}

// List returns exactly one row per device regardless of how many
// verification events it has accumulated.
func (s *DeviceStore) List(ctx context.Context) ([]Device, error) {
	var rows []Device
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, device_id, device_meta, registered_at, created_by, status
		FROM devices
		ORDER BY registered_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DeviceStore) AppendVerification(ctx context.Context, tx Execer, input VerificationInput) error {
	query := `
		INSERT INTO device_verifications (id, device_id, admin_id, status, note)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.DeviceID, input.AdminID, input.Status, input.Note)
	return err
}

func (s *DeviceStore) SetStatus(ctx context.Context, tx Execer, deviceID, status string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE devices
		SET status = $1
		WHERE id = $2
	`, status, deviceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *DeviceStore) ListVerifications(ctx context.Context, deviceID string) ([]DeviceVerification, error) {
	var rows []DeviceVerification
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, device_id, admin_id, status, note, created_at
		FROM device_verifications
		WHERE device_id = $1
		ORDER BY created_at DESC, id DESC
	`, deviceID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DeviceStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM devices`)
	return count, err
}
