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

package model

import (
	"errors"
	"strings"

	"github.com/tomoncle/iamstore/types"
)

// ReferenceType names the kind of resource owning a row.
type ReferenceType string

const (
	ReferencePlatform     ReferenceType = "PLATFORM"
	ReferenceOrganization ReferenceType = "ORGANIZATION"
	ReferenceEnvironment  ReferenceType = "ENVIRONMENT"
	ReferenceDomain       ReferenceType = "DOMAIN"
	ReferenceApplication  ReferenceType = "APPLICATION"
	ReferenceGroup        ReferenceType = "GROUP"
)

var referenceTypes = []ReferenceType{
	ReferencePlatform,
	ReferenceOrganization,
	ReferenceEnvironment,
	ReferenceDomain,
	ReferenceApplication,
	ReferenceGroup,
}

var _ types.BaseEnum = ReferenceType("")

// ReferenceTypes lists every known reference type.
func ReferenceTypes() []ReferenceType {
	out := make([]ReferenceType, len(referenceTypes))
	copy(out, referenceTypes)
	return out
}

// ParseReferenceType is case-insensitive; unknown names parse to "".
func ParseReferenceType(name string) ReferenceType {
	return types.ParseEnum(strings.ToUpper(strings.TrimSpace(name)), referenceTypes, ReferenceType(""))
}

func (t ReferenceType) IsValid() bool { return t.Number() != types.IllegalValue }

func (t ReferenceType) Number() int {
	for i, v := range referenceTypes {
		if v == t {
			return i
		}
	}
	return types.IllegalValue
}

func (t ReferenceType) String() string { return string(t) }

func (t ReferenceType) Name() string { return string(t) }

func (t ReferenceType) Desc() string {
	if !t.IsValid() {
		return types.IllegalDesc
	}
	return strings.ToLower(string(t))
}

var ErrInvalidReference = errors.New("invalid reference")

// Reference scopes a row to its owning platform, organization, environment,
// domain, application or group. Stored as reference_type/reference_id.
type Reference struct {
	Type ReferenceType `bun:"type" json:"type"`
	ID   string        `bun:"id" json:"id"`
}

func NewReference(t ReferenceType, id string) Reference {
	return Reference{Type: t, ID: id}
}

func DomainRef(id string) Reference { return NewReference(ReferenceDomain, id) }

func OrganizationRef(id string) Reference { return NewReference(ReferenceOrganization, id) }

func EnvironmentRef(id string) Reference { return NewReference(ReferenceEnvironment, id) }

func ApplicationRef(id string) Reference { return NewReference(ReferenceApplication, id) }

func PlatformRef(id string) Reference { return NewReference(ReferencePlatform, id) }

func (r Reference) IsZero() bool { return r.Type == "" && r.ID == "" }

func (r Reference) Validate() error {
	if !r.Type.IsValid() {
		return errors.Join(ErrInvalidReference, errors.New("unknown reference type "+string(r.Type)))
	}
	if strings.TrimSpace(r.ID) == "" {
		return errors.Join(ErrInvalidReference, errors.New("reference id is required"))
	}
	return nil
}

// Predicate matches rows owned by r.
func (r Reference) Predicate() types.Predicate {
	return types.And(
		types.Eq("reference_type", string(r.Type)),
		types.Eq("reference_id", r.ID),
	)
}

func (r Reference) String() string { return string(r.Type) + ":" + r.ID }
