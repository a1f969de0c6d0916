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
	"os"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

const filePerm = 0644

var allEnvVars = []string{ //nolint:gochecknoglobals
	EnvVarMaxDistance, EnvVarThreads, EnvVarMinimap2, EnvVarCreds, EnvVarSheet,
	EnvVarUser, EnvVarPass, EnvVarHost, EnvVarPort, EnvVarDBName,
}

func TestConfig(t *testing.T) {
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}

	Convey("Without any env vars, you get a default config", t, func() {
		config, err := FromEnv()
		So(err, ShouldBeNil)
		So(config.MaxDistance, ShouldEqual, DefaultMaxDistance)
		So(config.Threads, ShouldEqual, DefaultThreads)
		So(config.Minimap2, ShouldEqual, DefaultMinimap2)
		So(config.HasSheets(), ShouldBeFalse)
		So(config.HasSQL(), ShouldBeFalse)
	})

	Convey("Given a full set of env vars, you can make a config", t, func() {
		os.Setenv(EnvVarMaxDistance, "1")
		os.Setenv(EnvVarThreads, "16")
		os.Setenv(EnvVarMinimap2, "/opt/minimap2")
		os.Setenv(EnvVarCreds, "/path")
		os.Setenv(EnvVarSheet, "sheetid")
		os.Setenv(EnvVarUser, "user")
		os.Setenv(EnvVarPass, "pass")
		os.Setenv(EnvVarHost, "host")
		os.Setenv(EnvVarPort, "1234")
		os.Setenv(EnvVarDBName, "db")

		config, err := FromEnv()
		So(err, ShouldBeNil)
		So(config, ShouldResemble, &Config{
			MaxDistance:     1,
			Threads:         16,
			Minimap2:        "/opt/minimap2",
			CredentialsPath: "/path",
			SheetID:         "sheetid",
			User:            "user",
			Password:        "pass",
			Host:            "host",
			Port:            "1234",
			DBName:          "db",
		})
		So(config.HasSheets(), ShouldBeTrue)
		So(config.HasSQL(), ShouldBeTrue)

		mc := config.MySQLConfig()
		So(mc.User, ShouldEqual, "user")
		So(mc.Passwd, ShouldEqual, "pass")
		So(mc.Net, ShouldEqual, "tcp")
		So(mc.Addr, ShouldEqual, "host:1234")
		So(mc.DBName, ShouldEqual, "db")

		Convey("Partial settings are not usable", func() {
			os.Setenv(EnvVarPass, "")
			os.Setenv(EnvVarSheet, "")

			config, err := FromEnv()
			So(err, ShouldBeNil)
			So(config.HasSheets(), ShouldBeFalse)
			So(config.HasSQL(), ShouldBeFalse)
		})

		Convey("Invalid numbers are rejected", func() {
			os.Setenv(EnvVarThreads, "many")
			_, err := FromEnv()
			So(errors.Cause(err), ShouldEqual, ErrInvalidInt)

			os.Setenv(EnvVarThreads, "1")
			os.Setenv(EnvVarMaxDistance, "-1")
			_, err = FromEnv()
			So(err, ShouldEqual, ErrNegativeMaxDistance)
		})

		Convey("You can load values from an .env file", func() {
			os.Unsetenv(EnvVarUser)
			os.Unsetenv(EnvVarMaxDistance)

			dir := t.TempDir()

			err = os.WriteFile(dir+"/.env",
				[]byte(EnvVarUser+"=fileuser\n"+EnvVarMaxDistance+"=3\n"+EnvVarDBName+"=filedb"), filePerm)
			So(err, ShouldBeNil)

			config, err := FromEnv(dir)
			So(err, ShouldBeNil)
			So(config.User, ShouldEqual, "fileuser")
			So(config.MaxDistance, ShouldEqual, 3)
			So(config.CredentialsPath, ShouldEqual, "/path")
			So(config.DBName, ShouldEqual, "db")
		})
	})
}
