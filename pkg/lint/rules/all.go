// Package rules registers every built-in lint rule. Import it for its side
// effect:
//
//	import _ "github.com/leapstack-labs/contractlint/pkg/lint/rules"
//
// Built-in rules by group:
//
//	export     EXPORT_NESTED, EXPORT_CONFLICT, DUPLICATE_CONSTRUCTOR,
//	           EXPORT_UNKNOWN_DECORATOR, EXPORT_ANNOTATION,
//	           EXPORT_RETURN_ANNOTATION
//	orm        ORM_PLAIN_STATE, ORM_REASSIGN, ORM_DECLARATION_SCOPE,
//	           ORM_KEY_ARITY, ORM_RESERVED_KWARG, ORM_MULTI_TARGET,
//	           ORM_NAME_SHADOWED, ORM_READ_ONLY
//	security   SECURITY_DENYLIST, SECURITY_DUNDER
//	structure  SYNTAX_ILLEGAL_CONSTRUCT, SYNTAX_IMPORT_FROM,
//	           SYNTAX_NESTED_IMPORT, SYNTAX_NESTED_FUNCTION
package rules

import (
	_ "github.com/leapstack-labs/contractlint/pkg/lint/rules/export"
	_ "github.com/leapstack-labs/contractlint/pkg/lint/rules/orm"
	_ "github.com/leapstack-labs/contractlint/pkg/lint/rules/security"
	_ "github.com/leapstack-labs/contractlint/pkg/lint/rules/structure"
)
