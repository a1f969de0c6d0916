/*******************************************************************************
 * Copyright (c) 2026 Genome Research Ltd.
 *
 * Authors:
 *	- Sendu Bala <sb10@sanger.ac.uk>
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package config

import (
	"net"
	"os"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	EnvVarMaxDistance = "ANGLERFISH_MAX_DISTANCE"
	EnvVarThreads     = "ANGLERFISH_THREADS"
	EnvVarMinimap2    = "ANGLERFISH_MINIMAP2"
	EnvVarCreds       = "ANGLERFISH_CREDENTIALS_FILE"
	EnvVarSheet       = "ANGLERFISH_SPREADSHEET_ID"
	EnvVarUser        = "ANGLERFISH_SQL_USER"
	EnvVarPass        = "ANGLERFISH_SQL_PASS"
	EnvVarHost        = "ANGLERFISH_SQL_HOST"
	EnvVarPort        = "ANGLERFISH_SQL_PORT"
	EnvVarDBName      = "ANGLERFISH_SQL_DB"

	DefaultMaxDistance = 2
	DefaultThreads     = 4
	DefaultMinimap2    = "minimap2"

	sqlNetwork = "tcp"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrInvalidInt          = Error("environment variable is not an integer")
	ErrNegativeMaxDistance = Error("max distance can't be negative")
)

type Config struct {
	MaxDistance     int
	Threads         int
	Minimap2        string
	CredentialsPath string
	SheetID         string
	User            string
	Password        string
	Host            string
	Port            string
	DBName          string
}

// FromEnv returns a new Config with properies populated from environment
// variables ANGLERFISH_*, where * is amongst: MAX_DISTANCE, THREADS, MINIMAP2,
// CREDENTIALS_FILE, SPREADSHEET_ID, SQL_USER, SQL_PASS, SQL_HOST, SQL_PORT and
// SQL_DB. All are optional; MAX_DISTANCE defaults to 2, THREADS to 4 and
// MINIMAP2 to "minimap2".
//
// If these environment variables are defined in a file called .env (and not
// previously set in an environment variable), they will be automatically
// loaded.
//
// Optionally supply a directory to look for the .env file in.
func FromEnv(dir ...string) (*Config, error) {
	var parentDir string
	if len(dir) == 1 {
		parentDir = dir[0] + string(os.PathSeparator)
	}

	godotenv.Load(parentDir + ".env") //nolint:errcheck

	maxDistance, err := intFromEnv(EnvVarMaxDistance, DefaultMaxDistance)
	if err != nil {
		return nil, err
	}

	if maxDistance < 0 {
		return nil, ErrNegativeMaxDistance
	}

	threads, err := intFromEnv(EnvVarThreads, DefaultThreads)
	if err != nil {
		return nil, err
	}

	minimap2 := os.Getenv(EnvVarMinimap2)
	if minimap2 == "" {
		minimap2 = DefaultMinimap2
	}

	return &Config{
		MaxDistance:     maxDistance,
		Threads:         threads,
		Minimap2:        minimap2,
		CredentialsPath: os.Getenv(EnvVarCreds),
		SheetID:         os.Getenv(EnvVarSheet),
		User:            os.Getenv(EnvVarUser),
		Password:        os.Getenv(EnvVarPass),
		Host:            os.Getenv(EnvVarHost),
		Port:            os.Getenv(EnvVarPort),
		DBName:          os.Getenv(EnvVarDBName),
	}, nil
}

func intFromEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidInt, "%s=%s", key, v)
	}

	return i, nil
}

// HasSheets returns true if the Google Sheets settings are all set.
func (c *Config) HasSheets() bool {
	return c.CredentialsPath != "" && c.SheetID != ""
}

// HasSQL returns true if the MySQL settings are all set.
func (c *Config) HasSQL() bool {
	return c.User != "" && c.Password != "" && c.Host != "" && c.Port != "" && c.DBName != ""
}

// MySQLConfig returns a mysql.Config for connecting to the configured
// database.
func (c *Config) MySQLConfig() *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = sqlNetwork
	mc.Addr = net.JoinHostPort(c.Host, c.Port)
	mc.DBName = c.DBName
	mc.ParseTime = true

	return mc
}
