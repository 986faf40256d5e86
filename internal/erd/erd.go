// Package erd renders the catalog schema as an erd-editor (vuerd) JSON
// document so the model can be opened and arranged in a diagram tool.
//
// Entity ids are name-based UUIDs, so regenerating the document for an
// unchanged schema yields an identical file.
package erd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"beautywiz/internal/schema"
)

// SchemaURL is the erd-editor JSON schema the document declares.
const SchemaURL = "https://raw.githubusercontent.com/dineug/erd-editor/main/json-schema/schema.json"

// Namespace seeds entity ids.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("beautywiz/erd"))

// erd-editor database flags.
var databases = map[schema.Dialect]int{
	schema.MSSQL:    1 << 1,
	schema.MySQL:    1 << 2,
	schema.Postgres: 1 << 4,
	schema.SQLite:   1 << 5,
}

// Document is the top-level erd-editor file.
type Document struct {
	Schema      string      `json:"$schema"`
	Version     string      `json:"version"`
	Settings    Settings    `json:"settings"`
	Doc         Doc         `json:"doc"`
	Collections Collections `json:"collections"`
}

// Settings is the canvas configuration.
type Settings struct {
	Width                    int    `json:"width"`
	Height                   int    `json:"height"`
	ScrollTop                int    `json:"scrollTop"`
	ScrollLeft               int    `json:"scrollLeft"`
	ZoomLevel                int    `json:"zoomLevel"`
	Show                     int    `json:"show"`
	Database                 int    `json:"database"`
	DatabaseName             string `json:"databaseName"`
	CanvasType               string `json:"canvasType"`
	Language                 int    `json:"language"`
	TableNameCase            int    `json:"tableNameCase"`
	ColumnNameCase           int    `json:"columnNameCase"`
	BracketType              int    `json:"bracketType"`
	RelationshipDataTypeSync bool   `json:"relationshipDataTypeSync"`
	RelationshipOptimization bool   `json:"relationshipOptimization"`
	ColumnOrder              []int  `json:"columnOrder"`
	MaxWidthComment          int    `json:"maxWidthComment"`
	IgnoreSaveSettings       int    `json:"ignoreSaveSettings"`
}

// Doc lists entity ids in display order.
type Doc struct {
	TableIDs        []string `json:"tableIds"`
	RelationshipIDs []string `json:"relationshipIds"`
	IndexIDs        []string `json:"indexIds"`
	MemoIDs         []string `json:"memoIds"`
}

// Collections holds entities keyed by id.
type Collections struct {
	Tables        map[string]TableEntity        `json:"tableEntities"`
	Columns       map[string]ColumnEntity       `json:"tableColumnEntities"`
	Relationships map[string]RelationshipEntity `json:"relationshipEntities"`
	Indexes       map[string]IndexEntity        `json:"indexEntities"`
	IndexColumns  map[string]IndexColumnEntity  `json:"indexColumnEntities"`
	Memos         map[string]json.RawMessage    `json:"memoEntities"`
}

type TableEntity struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Comment      string   `json:"comment"`
	Color        *string  `json:"color"`
	X            int      `json:"x"`
	Y            int      `json:"y"`
	WidthName    int      `json:"widthName"`
	WidthComment int      `json:"widthComment"`
	Visible      bool     `json:"visible"`
	ColumnIDs    []string `json:"columnIds"`
}

type ColumnEntity struct {
	ID       string       `json:"id"`
	TableID  string       `json:"tableId"`
	Name     string       `json:"name"`
	DataType string       `json:"dataType"`
	Comment  string       `json:"comment"`
	Option   ColumnOption `json:"option"`
}

type ColumnOption struct {
	AutoIncrement bool   `json:"autoIncrement"`
	PrimaryKey    bool   `json:"primaryKey"`
	Unique        bool   `json:"unique"`
	NotNull       bool   `json:"notNull"`
	Default       string `json:"default"`
}

// RelationshipEntity points from the referenced (one) column to the
// referencing (many) column.
type RelationshipEntity struct {
	ID             string   `json:"id"`
	Identification bool     `json:"identification"`
	Endpoint       Endpoint `json:"endpoint"`
}

type Endpoint struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	StartType string `json:"startType"`
	EndType   string `json:"endType"`
}

type IndexEntity struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	TableID        string   `json:"tableId"`
	IndexColumnIDs []string `json:"indexColumnIds"`
	Unique         bool     `json:"unique"`
}

type IndexColumnEntity struct {
	ID        string `json:"id"`
	IndexID   string `json:"indexId"`
	ColumnID  string `json:"columnId"`
	OrderType int    `json:"orderType"`
}

// Build converts m to a Document for dialect d.
func Build(m schema.Model, d schema.Dialect) (*Document, error) {
	db, ok := databases[d]
	if !ok {
		return nil, fmt.Errorf("erd: unsupported dialect %q", d)
	}

	doc := &Document{
		Schema:  SchemaURL,
		Version: "3.0.0",
		Settings: Settings{
			Width: 2000, Height: 2000, ZoomLevel: 1, Show: 431,
			Database: db, CanvasType: "ERD", Language: 1,
			TableNameCase: 4, ColumnNameCase: 2, BracketType: 1,
			RelationshipDataTypeSync: true,
			ColumnOrder:              []int{1, 2, 4, 8, 16, 32, 64},
			MaxWidthComment:          -1,
		},
		Doc: Doc{TableIDs: []string{}, RelationshipIDs: []string{}, IndexIDs: []string{}, MemoIDs: []string{}},
		Collections: Collections{
			Tables:        map[string]TableEntity{},
			Columns:       map[string]ColumnEntity{},
			Relationships: map[string]RelationshipEntity{},
			Indexes:       map[string]IndexEntity{},
			IndexColumns:  map[string]IndexColumnEntity{},
			Memos:         map[string]json.RawMessage{},
		},
	}

	for i, t := range m.Tables {
		tid := id("table", t.Name)
		doc.Doc.TableIDs = append(doc.Doc.TableIDs, tid)

		pk := map[string]bool{}
		for _, c := range t.PrimaryKey {
			pk[c] = true
		}
		te := TableEntity{
			ID: tid, Name: t.Name, X: 100 + 300*i, Y: 100,
			WidthName: 120, WidthComment: 120, Visible: true,
		}
		for _, c := range t.Columns {
			cid := id("column", t.Name, c.Name)
			te.ColumnIDs = append(te.ColumnIDs, cid)
			doc.Collections.Columns[cid] = ColumnEntity{
				ID: cid, TableID: tid, Name: c.Name, DataType: dataType(c.Type),
				Option: ColumnOption{
					AutoIncrement: c.Type == schema.Serial,
					PrimaryKey:    c.Type == schema.Serial || pk[c.Name],
					Unique:        c.Unique,
					NotNull:       !c.Nullable,
				},
			}
		}
		doc.Collections.Tables[tid] = te

		for _, fk := range t.ForeignKeys {
			if _, ok := m.Table(fk.RefTable); !ok {
				return nil, fmt.Errorf("erd: %s.%s references unknown table %q", t.Name, fk.Column, fk.RefTable)
			}
			rid := id("relationship", t.Name, fk.Column)
			doc.Doc.RelationshipIDs = append(doc.Doc.RelationshipIDs, rid)
			doc.Collections.Relationships[rid] = RelationshipEntity{
				ID:             rid,
				Identification: pk[fk.Column],
				Endpoint: Endpoint{
					Start:     id("column", fk.RefTable, fk.RefColumn),
					End:       id("column", t.Name, fk.Column),
					StartType: "1",
					EndType:   "n",
				},
			}
		}
	}

	for _, ix := range m.Indexes {
		if _, ok := m.Table(ix.Table); !ok {
			return nil, fmt.Errorf("erd: index %s on unknown table %q", ix.Name, ix.Table)
		}
		iid := id("index", ix.Name)
		doc.Doc.IndexIDs = append(doc.Doc.IndexIDs, iid)
		ie := IndexEntity{ID: iid, Name: ix.Name, TableID: id("table", ix.Table), Unique: ix.Unique}
		for _, col := range ix.Columns {
			icid := id("index-column", ix.Name, col)
			ie.IndexColumnIDs = append(ie.IndexColumnIDs, icid)
			doc.Collections.IndexColumns[icid] = IndexColumnEntity{
				ID: icid, IndexID: iid, ColumnID: id("column", ix.Table, col), OrderType: 1,
			}
		}
		doc.Collections.Indexes[iid] = ie
	}
	return doc, nil
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("erd: encode: %w", err)
	}
	return nil
}

func id(parts ...string) string {
	return uuid.NewSHA1(Namespace, []byte(strings.Join(parts, "/"))).String()
}

func dataType(t schema.Type) string {
	switch t {
	case schema.Serial, schema.Int, schema.Hash:
		return "INTEGER"
	case schema.Real:
		return "REAL"
	default:
		return "TEXT"
	}
}
