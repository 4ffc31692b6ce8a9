/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package management_test

import (
	"context"

	"github.com/stretchr/testify/suite"
	"github.com/tomoncle/iamstore/repository/repotest"
	"github.com/uptrace/bun"
)

// dbSuite gives every test a fresh in-memory database.
type dbSuite struct {
	suite.Suite
	ctx context.Context
	db  *bun.DB
}

func (s *dbSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = repotest.NewDB(s.T())
}

// countRows counts the rows of table matching the column value.
func (s *dbSuite) countRows(table, column, value string) int {
	n, err := s.db.NewSelect().
		TableExpr("?", bun.Ident(table)).
		Where("? = ?", bun.Ident(column), value).
		Count(s.ctx)
	s.Require().NoError(err)
	return n
}
