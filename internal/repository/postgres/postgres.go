// Package postgres implements the repository interfaces on PostgreSQL via GORM.
//
// The record types below are the table shapes; the model package stays free
// of gorm tags. Converting at the boundary keeps the wire types identical
// whichever store is configured.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sakif/medassoc/internal/model"
	"github.com/sakif/medassoc/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

// Open connects and migrates. TranslateError makes the driver report unique
// violations as gorm.ErrDuplicatedKey.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&credentialRecord{}, &doctorRecord{}, &eventRecord{}); err != nil {
		s.Close()
		return nil, fmt.Errorf("postgres: migrating: %w", err)
	}
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Credentials() repository.CredentialRepository { return &CredentialRepo{db: s.db} }
func (s *Store) Doctors() repository.DoctorRepository         { return &DoctorRepo{db: s.db} }
func (s *Store) Events() repository.EventRepository           { return &EventRepo{db: s.db} }

type credentialRecord struct {
	ID             string `gorm:"primaryKey"`
	Username       string `gorm:"uniqueIndex;not null"`
	FullName       string
	HashedPassword string
	Disabled       bool
	CreatedAt      time.Time
}

func (credentialRecord) TableName() string { return "users" }

type doctorRecord struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	City        string
	Specialty   string
	ContactInfo string
	ImageURL    string `gorm:"column:image_url"`
	CreatedAt   time.Time
}

func (doctorRecord) TableName() string { return "doctors" }

type eventRecord struct {
	ID           string `gorm:"primaryKey"`
	Title        string
	Date         string
	Time         string
	Location     string
	Description  string
	ImageURL     string `gorm:"column:image_url"`
	Status       string
	ExternalLink string
	CreatedAt    time.Time `gorm:"index"`
}

func (eventRecord) TableName() string { return "events" }

func toCredentialRecord(c *model.Credential) credentialRecord {
	return credentialRecord{
		ID:             c.ID,
		Username:       c.Username,
		FullName:       c.FullName,
		HashedPassword: c.PasswordHash,
		Disabled:       c.Disabled,
		CreatedAt:      c.CreatedAt,
	}
}

func (r credentialRecord) toModel() *model.Credential {
	return &model.Credential{
		ID:           r.ID,
		Username:     r.Username,
		FullName:     r.FullName,
		PasswordHash: r.HashedPassword,
		Disabled:     r.Disabled,
		CreatedAt:    r.CreatedAt,
	}
}

func toDoctorRecord(d *model.Doctor) doctorRecord {
	return doctorRecord{
		ID:          d.ID,
		Name:        d.Name,
		City:        d.City,
		Specialty:   d.Specialty,
		ContactInfo: d.ContactInfo,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
	}
}

func (r doctorRecord) toModel() model.Doctor {
	return model.Doctor{
		ID:          r.ID,
		Name:        r.Name,
		City:        r.City,
		Specialty:   r.Specialty,
		ContactInfo: r.ContactInfo,
		ImageURL:    r.ImageURL,
		CreatedAt:   r.CreatedAt,
	}
}

func toEventRecord(e *model.Event) eventRecord {
	return eventRecord{
		ID:           e.ID,
		Title:        e.Title,
		Date:         e.Date,
		Time:         e.Time,
		Location:     e.Location,
		Description:  e.Description,
		ImageURL:     e.ImageURL,
		Status:       e.Status,
		ExternalLink: e.ExternalLink,
		CreatedAt:    e.CreatedAt,
	}
}

func (r eventRecord) toModel() model.Event {
	return model.Event{
		ID:           r.ID,
		Title:        r.Title,
		Date:         r.Date,
		Time:         r.Time,
		Location:     r.Location,
		Description:  r.Description,
		ImageURL:     r.ImageURL,
		Status:       r.Status,
		ExternalLink: r.ExternalLink,
		CreatedAt:    r.CreatedAt,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern that matches term literally
// anywhere in the column. Postgres uses backslash as the default escape.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
