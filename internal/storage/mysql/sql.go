package mysql

// Points are written and read as long-lat; SRID 4326 defaults to lat-long axis order.
const geomFromWKT = `ST_GeomFromText(?, 4326, 'axis-order=long-lat')`

const listingColumns = `
  id, name, description, address, regular_price, discount_price,
  bathrooms, bedrooms, furnished, parking, type, offer, image_urls, user_ref,
  ST_Longitude(location), ST_Latitude(location), created_at, updated_at
`

const insertListingSQL = `
INSERT INTO listings
  (id, name, description, address, regular_price, discount_price,
   bathrooms, bedrooms, furnished, parking, type, offer, image_urls, user_ref,
   location, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ` + geomFromWKT + `, ?, ?)
`

const updateListingSQL = `
UPDATE listings SET
  name           = ?,
  description    = ?,
  address        = ?,
  regular_price  = ?,
  discount_price = ?,
  bathrooms      = ?,
  bedrooms       = ?,
  furnished      = ?,
  parking        = ?,
  type           = ?,
  offer          = ?,
  image_urls     = ?,
  location       = ` + geomFromWKT + `,
  updated_at     = ?
WHERE id = ?
`

const deleteListingSQL = `DELETE FROM listings WHERE id = ?`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getListingSQL = `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`

// LIKE with an explicit escape char; the pattern is built by likePattern.
const findByTextSQL = `
SELECT ` + listingColumns + `
FROM listings
WHERE LOWER(name) LIKE LOWER(?) ESCAPE '!'
   OR LOWER(address) LIKE LOWER(?) ESCAPE '!'
LIMIT ?
`

// sphereRadius matches geo.EarthRadius; MySQL's default sphere is 6370986 m.
const sphereRadius = "6371000"

// MBRContains against the bounding box lets the planner use the spatial index
// before the exact sphere distance filter. Args: box WKT, point WKT, radius,
// point WKT, limit.
const findNearSQL = `
SELECT ` + listingColumns + `
FROM listings
WHERE MBRContains(` + geomFromWKT + `, location)
  AND ST_Distance_Sphere(location, ` + geomFromWKT + `, ` + sphereRadius + `) <= ?
ORDER BY ST_Distance_Sphere(location, ` + geomFromWKT + `, ` + sphereRadius + `)
LIMIT ?
`
