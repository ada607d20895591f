/*
Package testdata holds small tagged models for testing the ORM without the
catalogue schema.
*/
package testdata

import (
	"time"

	"github.com/samar-hassan/django-oscar-odin/metadata"
)

// Shelf has many books and is keyed by code
type Shelf struct {
	Metadata metadata.Metadata `oscar:"tablename=shelf"`
	ID       int64             `oscar:"primary_key,column=id"`
	Code     string            `oscar:"lookup,column=code"`
	Name     string            `oscar:"column=name"`
	Books    []*Book           `oscar:"child,foreign_key=ShelfID" validate:"-"`
}

// Book belongs to a shelf and is keyed by isbn
type Book struct {
	Metadata  metadata.Metadata `oscar:"tablename=book"`
	ID        int64             `oscar:"primary_key,column=id"`
	ISBN      string            `oscar:"lookup,column=isbn"`
	Title     string            `oscar:"column=title" validate:"required"`
	ShelfID   *int64            `oscar:"foreign_key,related=Shelf,column=shelf_id"`
	CreatedAt time.Time         `oscar:"column=created_at,audit=created_at"`
	UpdatedAt time.Time         `oscar:"column=updated_at,audit=updated_at"`
	Shelf     *Shelf            `validate:"-"`
}

// Edition is keyed by book and number
type Edition struct {
	Metadata metadata.Metadata `oscar:"tablename=edition"`
	ID       int64             `oscar:"primary_key,column=id"`
	BookID   int64             `oscar:"lookup,foreign_key,related=Book,column=book_id"`
	Number   int               `oscar:"lookup,column=number"`
	Year     int               `oscar:"column=year"`
	Book     *Book             `validate:"-"`
}

// Sticker has no natural key
type Sticker struct {
	Metadata metadata.Metadata `oscar:"tablename=sticker"`
	ID       int64             `oscar:"primary_key,column=id"`
	Label    string            `oscar:"column=label"`
}

// Untabled has no table name
type Untabled struct {
	Metadata metadata.Metadata
	ID       int64 `oscar:"primary_key,column=id"`
}

// Keyless has a table but no primary key
type Keyless struct {
	Metadata metadata.Metadata `oscar:"tablename=keyless"`
	Name     string            `oscar:"column=name"`
}
