package store

// SQL statements for PostgresStore. Named-argument statements use
// pgx.NamedArgs; the rest take positional parameters.

const queryCreateProduct = `
INSERT INTO products (id, title, url, image)
VALUES (@id, @title, @url, @image)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	image = EXCLUDED.image
RETURNING created_at`

const queryGetProduct = `
SELECT id, title, url, image, created_at
FROM products
WHERE id = $1`

const queryGetProductByURL = `
SELECT id, title, url, image, created_at
FROM products
WHERE url = $1`

const queryListProducts = `
SELECT id, title, url, image, created_at
FROM products
ORDER BY created_at, id`

const queryDeleteProduct = `
DELETE FROM products WHERE id = $1`

const queryAppendPriceEntry = `
INSERT INTO price_entries (id, product_id, amount, observed_at)
VALUES (@id, @product_id, @amount, @observed_at)`

const queryLatestPriceEntry = `
SELECT id, product_id, amount, observed_at
FROM price_entries
WHERE product_id = $1
ORDER BY observed_at DESC, id DESC
LIMIT 1`

const queryHighWaterMark = `
SELECT MAX(amount)
FROM price_entries
WHERE product_id = $1 AND observed_at >= $2`

const queryCreateAlert = `
INSERT INTO price_alerts (id, product_id, price_id, active, shown, high_price_amount)
VALUES (@id, @product_id, @price_id, @active, @shown, @high_price_amount)
RETURNING created_at`

const queryGetAlert = `
SELECT id, product_id, price_id, active, shown, high_price_amount, created_at, deactivated_at
FROM price_alerts
WHERE id = $1`

const queryActiveAlert = `
SELECT id, product_id, price_id, active, shown, high_price_amount, created_at, deactivated_at
FROM price_alerts
WHERE product_id = $1 AND active
LIMIT 1`

const queryLatestAlert = `
SELECT id, product_id, price_id, active, shown, high_price_amount, created_at, deactivated_at
FROM price_alerts
WHERE product_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1`

const queryListAlertsAll = `
SELECT id, product_id, price_id, active, shown, high_price_amount, created_at, deactivated_at
FROM price_alerts
ORDER BY created_at DESC, id DESC`

const queryListAlertsActive = `
SELECT id, product_id, price_id, active, shown, high_price_amount, created_at, deactivated_at
FROM price_alerts
WHERE active
ORDER BY created_at DESC, id DESC`

const queryMarkAlertShown = `
UPDATE price_alerts SET shown = TRUE WHERE id = $1`

const queryDeactivateAlert = `
UPDATE price_alerts SET active = FALSE, deactivated_at = $2 WHERE id = $1`

const querySnapshotEntries = `
SELECT id, product_id, amount, observed_at
FROM price_entries
ORDER BY observed_at, id`

const queryInsertSnapshotProduct = `
INSERT INTO products (id, title, url, image, created_at)
VALUES (@id, @title, @url, @image, @created_at)`

const queryInsertSnapshotAlert = `
INSERT INTO price_alerts (id, product_id, price_id, active, shown, high_price_amount, created_at, deactivated_at)
VALUES (@id, @product_id, @price_id, @active, @shown, @high_price_amount, @created_at, @deactivated_at)`
