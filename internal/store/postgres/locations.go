package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LocationsStore struct {
	pool *pgxpool.Pool
}

func NewLocationsStore(pool *pgxpool.Pool) *LocationsStore {
	return &LocationsStore{pool: pool}
}

const locationColumns = `
	l.id, l.uuid, l.name, l.description, l.about, l.created, l.modified,
	l.latitude, l.longitude, l.published, l.country, l.parent_id, l.owner_id,
	coalesce(o.first_name || ' ' || o.last_name, ''), l.photo_id, coalesce(p.path, ''),
	l.underground_id, ug.type, ug.state, ug.accessibility, ug.tools,
	ug.length, ug.geofond_id, ug.abandoned_year,
	ARRAY(SELECT m.material FROM underground_materials m WHERE m.underground_id = l.underground_id ORDER BY m.material),
	l.urbex_id, ux.type, ux.state, ux.accessibility, ux.abandoned_year,
	l.hiking_id, hk.type,
	ARRAY(SELECT f.feature FROM hiking_features f WHERE f.hiking_id = l.hiking_id ORDER BY f.feature)
`

const locationFrom = `
	FROM locations l
	JOIN users o ON o.id = l.owner_id
	LEFT JOIN uploads p ON p.id = l.photo_id
	LEFT JOIN undergrounds ug ON ug.id = l.underground_id
	LEFT JOIN urbexes ux ON ux.id = l.urbex_id
	LEFT JOIN hikings hk ON hk.id = l.hiking_id
`

func scanLocation(row scanner, extra ...any) (domain.Location, error) {
	var (
		l                   domain.Location
		id                  pgtype.UUID
		lat, lon            float64
		parentID, photoID   pgtype.Int8
		photoPath           string
		ugID, uxID, hkID    pgtype.Int8
		ugType, ugState     pgtype.Int2
		ugAccess            pgtype.Int2
		ugTools             pgtype.Text
		ugLength, ugGeofond pgtype.Int4
		ugYear              pgtype.Int4
		materials           []int16
		uxType, uxState     pgtype.Int2
		uxAccess            pgtype.Int2
		uxYear              pgtype.Int4
		hkType              pgtype.Int2
		features            []int16
	)
	dest := []any{
		&l.ID, &id, &l.Name, &l.Description, &l.About, &l.Created, &l.Modified,
		&lat, &lon, &l.Published, &l.Country, &parentID, &l.OwnerID,
		&l.OwnerName, &photoID, &photoPath,
		&ugID, &ugType, &ugState, &ugAccess, &ugTools,
		&ugLength, &ugGeofond, &ugYear,
		&materials,
		&uxID, &uxType, &uxState, &uxAccess, &uxYear,
		&hkID, &hkType,
		&features,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Location{}, err
	}

	l.UUID = uuidOrEmpty(id)
	l.Latitude = domain.LatLon{Value: lat, IsLatitude: true}
	l.Longitude = domain.LatLon{Value: lon}
	l.ParentID = int8Ptr(parentID)
	l.PhotoID = int8Ptr(photoID)
	if l.PhotoID != nil {
		l.Photo = &domain.Upload{ID: *l.PhotoID, Path: photoPath, Type: domain.UploadPhoto}
	}

	switch {
	case ugID.Valid:
		ug := &domain.Underground{
			ID:            ugID.Int64,
			Type:          domain.UndergroundType(ugType.Int16),
			State:         domain.UndergroundState(ugState.Int16),
			Accessibility: domain.UndergroundAccessibility(ugAccess.Int16),
			Tools:         textOrEmpty(ugTools),
			Length:        int4Ptr(ugLength),
			GeofondID:     int4Ptr(ugGeofond),
			AbandonedYear: int4Ptr(ugYear),
		}
		for _, m := range materials {
			ug.Materials = append(ug.Materials, domain.Material(m))
		}
		l.Kind = ug
	case uxID.Valid:
		l.Kind = &domain.Urbex{
			ID:            uxID.Int64,
			Type:          domain.UrbexType(uxType.Int16),
			State:         domain.UrbexState(uxState.Int16),
			Accessibility: domain.UrbexAccessibility(uxAccess.Int16),
			AbandonedYear: int4Ptr(uxYear),
		}
	case hkID.Valid:
		hk := &domain.Hiking{ID: hkID.Int64, Type: domain.HikingType(hkType.Int16)}
		for _, f := range features {
			hk.Features = append(hk.Features, domain.HikingFeature(f))
		}
		l.Kind = hk
	}
	return l, nil
}

// CreateLocation inserts the kind row, the location and its category links
// in one transaction. l.UUID must be set by the caller.
func (s *LocationsStore) CreateLocation(ctx context.Context, l domain.Location) (domain.Location, error) {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		kindCol, kindID, err := insertKind(ctx, tx, l.Kind)
		if err != nil {
			return err
		}

		q := `
			INSERT INTO locations (uuid, name, description, about, created, modified,
				latitude, longitude, published, country, parent_id, owner_id, ` + kindCol + `)
			VALUES ($1, $2, $3, $4, $5, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`
		err = tx.QueryRow(ctx, q, l.UUID, l.Name, l.Description, l.About, l.Created,
			l.Latitude.Value, l.Longitude.Value, l.Published, int16(l.Country), l.ParentID, l.OwnerID, kindID,
		).Scan(&l.ID)
		if err != nil {
			return mapLocationWriteError(err)
		}
		return replaceCategories(ctx, tx, l.ID, l.Categories)
	})
	if err != nil {
		return domain.Location{}, err
	}
	return s.GetLocation(ctx, l.ID)
}

func (s *LocationsStore) GetLocation(ctx context.Context, id int64) (domain.Location, error) {
	const q = `SELECT ` + locationColumns + locationFrom + ` WHERE l.id = $1`

	l, err := scanLocation(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Location{}, domain.ErrNotFound
		}
		return domain.Location{}, fmt.Errorf("get location: %w", err)
	}

	cats, err := s.locationCategories(ctx, id)
	if err != nil {
		return domain.Location{}, err
	}
	l.Categories = cats
	return l, nil
}

// UpdateLocation writes the common columns, the kind row and the category
// set. The kind of an existing location never changes.
func (s *LocationsStore) UpdateLocation(ctx context.Context, l domain.Location) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const q = `
			UPDATE locations
			SET name = $2, description = $3, about = $4, modified = $5,
				latitude = $6, longitude = $7, published = $8, country = $9, parent_id = $10
			WHERE id = $1
		`
		tag, err := tx.Exec(ctx, q, l.ID, l.Name, l.Description, l.About, l.Modified,
			l.Latitude.Value, l.Longitude.Value, l.Published, int16(l.Country), l.ParentID)
		if err != nil {
			return mapLocationWriteError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if err := updateKind(ctx, tx, l.Kind); err != nil {
			return err
		}
		return replaceCategories(ctx, tx, l.ID, l.Categories)
	})
}

// DeleteLocation removes the location, its kind row and every row that
// cascades from it.
func (s *LocationsStore) DeleteLocation(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const q = `
			DELETE FROM locations
			WHERE id = $1
			RETURNING underground_id, urbex_id, hiking_id
		`
		var ugID, uxID, hkID pgtype.Int8
		if err := tx.QueryRow(ctx, q, id).Scan(&ugID, &uxID, &hkID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("delete location: %w", err)
		}

		var del string
		var kindID int64
		switch {
		case ugID.Valid:
			del, kindID = `DELETE FROM undergrounds WHERE id = $1`, ugID.Int64
		case uxID.Valid:
			del, kindID = `DELETE FROM urbexes WHERE id = $1`, uxID.Int64
		case hkID.Valid:
			del, kindID = `DELETE FROM hikings WHERE id = $1`, hkID.Int64
		default:
			return nil
		}
		if _, err := tx.Exec(ctx, del, kindID); err != nil {
			return fmt.Errorf("delete location kind: %w", err)
		}
		return nil
	})
}

func (s *LocationsStore) SetPhoto(ctx context.Context, id int64, uploadID *int64) error {
	const q = `UPDATE locations SET photo_id = $2 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id, uploadID)
	if err != nil {
		return fmt.Errorf("set location photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListLocations pages through locations matching f, newest first.
func (s *LocationsStore) ListLocations(ctx context.Context, f domain.LocationFilter, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	where, args := locationWhere(f)
	limit, offset := pageArgs(page)
	n := len(args)
	q := `SELECT ` + locationColumns + `, count(*) OVER ()` + locationFrom + `
		WHERE ` + where + `
		ORDER BY l.created DESC, l.id DESC
		LIMIT $` + fmt.Sprint(n+1) + ` OFFSET $` + fmt.Sprint(n+2)

	rows, err := s.pool.Query(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return domain.PageResult[domain.Location]{}, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.Location
		total int
	)
	for rows.Next() {
		l, err := scanLocation(rows, &total)
		if err != nil {
			return domain.PageResult[domain.Location]{}, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return domain.PageResult[domain.Location]{}, fmt.Errorf("list locations: %w", err)
	}
	return pageResult(out, total, page), nil
}

// ListAll returns every location matching f without paging. It backs the
// map and the JSON API.
func (s *LocationsStore) ListAll(ctx context.Context, f domain.LocationFilter) ([]domain.Location, error) {
	where, args := locationWhere(f)
	q := `SELECT ` + locationColumns + locationFrom + ` WHERE ` + where + ` ORDER BY l.name, l.id`
	return s.list(ctx, q, args...)
}

func (s *LocationsStore) ListChildren(ctx context.Context, parentID int64) ([]domain.Location, error) {
	const q = `SELECT ` + locationColumns + locationFrom + ` WHERE l.parent_id = $1 ORDER BY l.name, l.id`
	return s.list(ctx, q, parentID)
}

// ListVisited pages through locations visited by userID, once per location,
// ordered by the latest visit.
func (s *LocationsStore) ListVisited(ctx context.Context, userID int64, f domain.LocationFilter, page domain.PageRequest) (domain.PageResult[domain.LocationVisit], error) {
	where, args := locationWhere(f)
	n := len(args)
	args = append(args, userID)
	limit, offset := pageArgs(page)
	q := `SELECT ` + locationColumns + `, v.visited_on, count(*) OVER ()` + locationFrom + `
		JOIN (
			SELECT location_id, max(visited_on) AS visited_on
			FROM visits
			WHERE user_id = $` + fmt.Sprint(n+1) + `
			GROUP BY location_id
		) v ON v.location_id = l.id
		WHERE ` + where + `
		ORDER BY v.visited_on DESC, l.id DESC
		LIMIT $` + fmt.Sprint(n+2) + ` OFFSET $` + fmt.Sprint(n+3)

	rows, err := s.pool.Query(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return domain.PageResult[domain.LocationVisit]{}, fmt.Errorf("list visited locations: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.LocationVisit
		total int
	)
	for rows.Next() {
		var lv domain.LocationVisit
		l, err := scanLocation(rows, &lv.VisitedOn, &total)
		if err != nil {
			return domain.PageResult[domain.LocationVisit]{}, fmt.Errorf("scan visited location: %w", err)
		}
		lv.Location = l
		out = append(out, lv)
	}
	if err := rows.Err(); err != nil {
		return domain.PageResult[domain.LocationVisit]{}, fmt.Errorf("list visited locations: %w", err)
	}
	return pageResult(out, total, page), nil
}

// CountSince counts locations created after since, for the moderator alert.
func (s *LocationsStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT count(*) FROM locations WHERE created > $1`
	var n int
	if err := s.pool.QueryRow(ctx, q, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return n, nil
}

func (s *LocationsStore) list(ctx context.Context, q string, args ...any) ([]domain.Location, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []domain.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *LocationsStore) locationCategories(ctx context.Context, locationID int64) ([]domain.Category, error) {
	const q = `
		SELECT c.id, c.uuid, c.name, c.description
		FROM categories c
		JOIN location_categories lc ON lc.category_id = c.id
		WHERE lc.location_id = $1
		ORDER BY c.name
	`
	rows, err := s.pool.Query(ctx, q, locationID)
	if err != nil {
		return nil, fmt.Errorf("list location categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var (
			c  domain.Category
			id pgtype.UUID
		)
		if err := rows.Scan(&c.ID, &id, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan location category: %w", err)
		}
		c.UUID = uuidOrEmpty(id)
		out = append(out, c)
	}
	return out, rows.Err()
}

func locationWhere(f domain.LocationFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch f.Type {
	case domain.LocationUnderground:
		conds = append(conds, "l.underground_id IS NOT NULL")
	case domain.LocationUrbex:
		conds = append(conds, "l.urbex_id IS NOT NULL")
	case domain.LocationHiking:
		conds = append(conds, "l.hiking_id IS NOT NULL")
	}
	if f.ViewerID != nil {
		conds = append(conds, "(l.published OR l.owner_id = "+arg(*f.ViewerID)+")")
	}
	if f.OwnerID != nil {
		conds = append(conds, "l.owner_id = "+arg(*f.OwnerID))
	}
	if f.OnlyUnpublished {
		conds = append(conds, "NOT l.published")
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		conds = append(conds, "(l.name ILIKE "+p+" OR l.description ILIKE "+p+")")
	}
	if f.CategoryID != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM location_categories lc WHERE lc.location_id = l.id AND lc.category_id = "+arg(*f.CategoryID)+")")
	}
	if f.BookmarkID != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM bookmark_locations bl WHERE bl.location_id = l.id AND bl.bookmark_id = "+arg(*f.BookmarkID)+")")
	}
	if f.Since != nil {
		conds = append(conds, "l.created > "+arg(*f.Since))
	}

	if len(conds) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func insertKind(ctx context.Context, tx pgx.Tx, kind domain.LocationKind) (string, int64, error) {
	var id int64
	switch k := kind.(type) {
	case *domain.Underground:
		const q = `
			INSERT INTO undergrounds (type, state, accessibility, tools, length, geofond_id, abandoned_year)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`
		err := tx.QueryRow(ctx, q, int16(k.Type), int16(k.State), int16(k.Accessibility), k.Tools, k.Length, k.GeofondID, k.AbandonedYear).Scan(&id)
		if err != nil {
			return "", 0, fmt.Errorf("insert underground: %w", err)
		}
		k.ID = id
		if err := replaceMaterials(ctx, tx, id, k.Materials); err != nil {
			return "", 0, err
		}
		return "underground_id", id, nil
	case *domain.Urbex:
		const q = `
			INSERT INTO urbexes (type, state, accessibility, abandoned_year)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		if err := tx.QueryRow(ctx, q, int16(k.Type), int16(k.State), int16(k.Accessibility), k.AbandonedYear).Scan(&id); err != nil {
			return "", 0, fmt.Errorf("insert urbex: %w", err)
		}
		k.ID = id
		return "urbex_id", id, nil
	case *domain.Hiking:
		const q = `INSERT INTO hikings (type) VALUES ($1) RETURNING id`
		if err := tx.QueryRow(ctx, q, int16(k.Type)).Scan(&id); err != nil {
			return "", 0, fmt.Errorf("insert hiking: %w", err)
		}
		k.ID = id
		if err := replaceFeatures(ctx, tx, id, k.Features); err != nil {
			return "", 0, err
		}
		return "hiking_id", id, nil
	default:
		return "", 0, domain.ErrUnsupportedKind
	}
}

func updateKind(ctx context.Context, tx pgx.Tx, kind domain.LocationKind) error {
	switch k := kind.(type) {
	case *domain.Underground:
		const q = `
			UPDATE undergrounds
			SET type = $2, state = $3, accessibility = $4, tools = $5, length = $6, geofond_id = $7, abandoned_year = $8
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, q, k.ID, int16(k.Type), int16(k.State), int16(k.Accessibility), k.Tools, k.Length, k.GeofondID, k.AbandonedYear); err != nil {
			return fmt.Errorf("update underground: %w", err)
		}
		return replaceMaterials(ctx, tx, k.ID, k.Materials)
	case *domain.Urbex:
		const q = `UPDATE urbexes SET type = $2, state = $3, accessibility = $4, abandoned_year = $5 WHERE id = $1`
		if _, err := tx.Exec(ctx, q, k.ID, int16(k.Type), int16(k.State), int16(k.Accessibility), k.AbandonedYear); err != nil {
			return fmt.Errorf("update urbex: %w", err)
		}
		return nil
	case *domain.Hiking:
		const q = `UPDATE hikings SET type = $2 WHERE id = $1`
		if _, err := tx.Exec(ctx, q, k.ID, int16(k.Type)); err != nil {
			return fmt.Errorf("update hiking: %w", err)
		}
		return replaceFeatures(ctx, tx, k.ID, k.Features)
	default:
		return domain.ErrUnsupportedKind
	}
}

func replaceMaterials(ctx context.Context, tx pgx.Tx, undergroundID int64, materials []domain.Material) error {
	if _, err := tx.Exec(ctx, `DELETE FROM underground_materials WHERE underground_id = $1`, undergroundID); err != nil {
		return fmt.Errorf("clear materials: %w", err)
	}
	vals := make([]int16, 0, len(materials))
	for _, m := range materials {
		vals = append(vals, int16(m))
	}
	const q = `
		INSERT INTO underground_materials (underground_id, material)
		SELECT $1, unnest($2::smallint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.Exec(ctx, q, undergroundID, vals); err != nil {
		return fmt.Errorf("insert materials: %w", err)
	}
	return nil
}

func replaceFeatures(ctx context.Context, tx pgx.Tx, hikingID int64, features []domain.HikingFeature) error {
	if _, err := tx.Exec(ctx, `DELETE FROM hiking_features WHERE hiking_id = $1`, hikingID); err != nil {
		return fmt.Errorf("clear features: %w", err)
	}
	vals := make([]int16, 0, len(features))
	for _, f := range features {
		vals = append(vals, int16(f))
	}
	const q = `
		INSERT INTO hiking_features (hiking_id, feature)
		SELECT $1, unnest($2::smallint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.Exec(ctx, q, hikingID, vals); err != nil {
		return fmt.Errorf("insert features: %w", err)
	}
	return nil
}

func replaceCategories(ctx context.Context, tx pgx.Tx, locationID int64, cats []domain.Category) error {
	if _, err := tx.Exec(ctx, `DELETE FROM location_categories WHERE location_id = $1`, locationID); err != nil {
		return fmt.Errorf("clear location categories: %w", err)
	}
	ids := make([]int64, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
	}
	const q = `
		INSERT INTO location_categories (location_id, category_id)
		SELECT $1, c.id FROM categories c WHERE c.id = ANY($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.Exec(ctx, q, locationID, ids); err != nil {
		return fmt.Errorf("insert location categories: %w", err)
	}
	return nil
}

func mapLocationWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		switch {
		case pgerr.Code == "23514" && pgerr.ConstraintName == "locations_one_kind_chk":
			return domain.NewValidationError(map[string]string{"type": "A location needs exactly one kind."})
		case pgerr.Code == "23503" && pgerr.ConstraintName == "locations_parent_id_fkey":
			return domain.FieldError("parent", "Parent location does not exist.")
		}
	}
	return fmt.Errorf("write location: %w", err)
}
