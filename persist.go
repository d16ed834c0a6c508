package gorecord

import (
	"context"
	"fmt"
	"strings"

	"github.com/mickamy/gorecord/internal/query"
)

// Fetch loads the row identified by id, replacing both the persisted and the
// working state. It reports false without error when no row matches.
func (e *Entity) Fetch(ctx context.Context, id any) (bool, error) {
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s = :%s", e.quote(e.desc.table), e.quote(IDField), IDField)
	row, err := e.single(ctx, q, Params{IDField: id})
	if err != nil || row == nil {
		return false, err
	}
	e.load(row)
	return true, nil
}

// FetchColumns refreshes the given columns from the store and merges them
// into the entity. columns is a comma separated string or a []string. The row
// is identified by id when given, else by the entity's own identifier. An
// entity without an identifier adopts id, so a later Save updates that row.
func (e *Entity) FetchColumns(ctx context.Context, columns any, id ...any) (bool, error) {
	key := e.ID()
	if len(id) > 0 && !missingID(id[0]) {
		key = id[0]
	}
	if missingID(key) {
		return false, newError(KindMissingIdentifier, "Entity.FetchColumns", "no identifier known or supplied", nil)
	}
	cols, err := columnList(columns)
	if err != nil {
		return false, err
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = :%s",
		strings.Join(e.quoteAll(cols), ", "), e.quote(e.desc.table), e.quote(IDField), IDField)
	row, err := e.single(ctx, q, Params{IDField: key})
	if err != nil || row == nil {
		return false, err
	}
	e.merge(row)
	if missingID(e.original[IDField]) {
		e.put(IDField, key)
		e.original[IDField] = key
	}
	return true, nil
}

// Reload fetches the entity again by its own identifier, discarding unsaved
// changes.
func (e *Entity) Reload(ctx context.Context) (bool, error) {
	id := e.ID()
	if missingID(id) {
		return false, newError(KindMissingIdentifier, "Entity.Reload", "entity has no identifier", nil)
	}
	return e.Fetch(ctx, id)
}

// Save writes the dirty fields: an UPDATE keyed by the persisted identifier,
// or an INSERT for a new entity. Saving a clean entity issues no statement.
// On success every written field becomes part of the persisted state.
func (e *Entity) Save(ctx context.Context) (bool, error) {
	dirty := e.dirtyKeys()
	if len(dirty) == 0 {
		return true, nil
	}
	if err := checkFields("Entity.Save", dirty); err != nil {
		return false, err
	}

	if id, ok := e.original[IDField]; ok && !missingID(id) {
		if err := e.update(ctx, id, dirty); err != nil {
			return false, err
		}
	} else if err := e.insert(ctx, dirty); err != nil {
		return false, err
	}

	for _, k := range dirty {
		e.original[k] = e.working[k]
	}
	return true, nil
}

func (e *Entity) update(ctx context.Context, id any, dirty []string) error {
	params := Params{IDField: id}
	sets := make([]string, 0, len(dirty))
	for _, k := range dirty {
		if k == IDField {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = :%s", e.quote(k), k))
		params[k] = e.working[k]
	}
	if len(sets) == 0 {
		return nil
	}

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = :%s",
		e.quote(e.desc.table), strings.Join(sets, ", "), e.quote(IDField), IDField)
	stmt, err := e.run(ctx, q, params)
	if err != nil {
		return err
	}
	return stmt.Close()
}

func (e *Entity) insert(ctx context.Context, dirty []string) error {
	params := make(Params, len(dirty))
	names := make([]string, 0, len(dirty))
	for _, k := range dirty {
		names = append(names, ":"+k)
		params[k] = e.working[k]
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		e.quote(e.desc.table), strings.Join(e.quoteAll(dirty), ", "), strings.Join(names, ", "))

	returning := false
	if r, ok := e.exec.(ReturningInserter); ok && r.InsertReturning() {
		q, returning = query.AppendReturning(q, e.quote(IDField))
	}

	stmt, err := e.run(ctx, q, params)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var id any
	if returning {
		row, err := stmt.Single()
		if err != nil {
			return err
		}
		id = row[IDField]
	} else if id, err = stmt.LastInsertID(); err != nil {
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	e.original[IDField] = id
	e.put(IDField, id)
	return nil
}

// Delete removes the persisted row. The in-memory state is left as is.
func (e *Entity) Delete(ctx context.Context) error {
	id, ok := e.original[IDField]
	if !ok || missingID(id) {
		return newError(KindMissingIdentifier, "Entity.Delete", "entity has no persisted identifier", nil)
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = :%s", e.quote(e.desc.table), e.quote(IDField), IDField)
	stmt, err := e.run(ctx, q, Params{IDField: id})
	if err != nil {
		return err
	}
	return stmt.Close()
}

func (e *Entity) single(ctx context.Context, q string, params Params) (map[string]any, error) {
	stmt, err := e.run(ctx, q, params)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	return stmt.Single()
}

func (e *Entity) run(ctx context.Context, q string, params Params) (Statement, error) {
	if e.exec == nil {
		return nil, newError(KindConnection, "Entity", "entity has no executor", nil)
	}
	return e.exec.Query(ctx, q, true, params)
}
