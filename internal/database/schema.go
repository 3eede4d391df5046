package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// schema is applied in order. Every statement is idempotent so Migrate can
// run on each start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		first_name    VARCHAR(100) NOT NULL DEFAULT '',
		last_name     VARCHAR(100) NOT NULL DEFAULT '',
		username      VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('Guest','Host','Admin') NOT NULL DEFAULT 'Guest',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS listings (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		host_id      BIGINT UNSIGNED NOT NULL,
		title        VARCHAR(200) NOT NULL,
		description  TEXT NOT NULL,
		price        DECIMAL(10,2) NOT NULL,
		location     VARCHAR(255) NOT NULL,
		availability TINYINT(1) NOT NULL DEFAULT 1,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_listings_host (host_id),
		CONSTRAINT fk_listings_host FOREIGN KEY (host_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT chk_listings_price CHECK (price >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		guest_id   BIGINT UNSIGNED NOT NULL,
		listing_id BIGINT UNSIGNED NOT NULL,
		check_in   DATETIME NOT NULL,
		check_out  DATETIME NOT NULL,
		status     ENUM('Pending','Confirmed','Canceled') NOT NULL DEFAULT 'Pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_bookings_listing_range (listing_id, check_in, check_out),
		KEY idx_bookings_guest (guest_id),
		CONSTRAINT fk_bookings_guest FOREIGN KEY (guest_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_bookings_listing FOREIGN KEY (listing_id) REFERENCES listings(id) ON DELETE CASCADE,
		CONSTRAINT chk_bookings_range CHECK (check_in < check_out)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		booking_id       BIGINT UNSIGNED NOT NULL,
		amount           DECIMAL(10,2) NOT NULL,
		payment_method   VARCHAR(50) NOT NULL,
		status           VARCHAR(50) NOT NULL,
		transaction_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_payments_booking (booking_id),
		CONSTRAINT fk_payments_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		listing_id BIGINT UNSIGNED NOT NULL,
		rating     TINYINT NOT NULL,
		comment    TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_reviews_listing FOREIGN KEY (listing_id) REFERENCES listings(id) ON DELETE CASCADE,
		CONSTRAINT chk_reviews_rating CHECK (rating BETWEEN 1 AND 5)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	log.Printf("database: schema ready (%d tables)", len(schema))
	return nil
}
