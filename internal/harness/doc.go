// Package harness provides scenario-driven conformance testing for query
// compilation.
//
// The harness loads a CUE entity model, builds a select over a root
// entity, binds an output shape with the projection binder, generates SQL
// for the scenario's dialect and compares the outcome with the scenario's
// expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: mixed_fallback
//	description: "A local function forces mixed evaluation"
//	model: ../models/shop
//	dialect: sqlite
//	root: Customer
//	joins:
//	  - member: Referrer
//	    navigation: Referrer
//	predicate: {binary: "==", left: {member: Name, of: {entity: Customer}}, right: {const: "Ada"}}
//	orderings:
//	  - expr: {member: Created, of: {entity: Customer}}
//	    descending: true
//	limit: 10
//	parameters: { x: 5 }
//	shape:
//	  new: Row
//	  fields:
//	    Name: {member: Name, of: {entity: Customer}}
//	    Tag: {call: ComputeTag, declaring: Program, args: [{param: x, type: int}], type: string}
//	check: true
//	expect:
//	  mode: mixed
//	  passes: [server_only, mixed]
//	  projection_count: 1
//
// Shape node syntax is documented on nodeKinds in decode.go.
//
// # Expectations
//
// The following expectation fields are supported; unset fields are not
// checked:
//
//   - mode, passes: the final mode and the attempted modes
//   - projection_count: length of the select's projection list
//   - slots: mapped slot paths in registration order
//   - sql, params: generated query text and bound values
//   - entities: number of distinct entity descriptors
//   - shape: the printed rewritten shape
//   - error: the expected invariant violation code
//
// Independently of expectations, every run verifies mode monotonicity and
// slot uniqueness (see CheckProperties).
//
// # Deterministic Testing
//
// Select IDs come from testutil.SequenceGenerator, so reports are
// byte-identical across runs and suitable for golden comparison. With
// check set, the SQL is prepared against a fresh in-memory SQLite database
// holding the model's tables.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/mixed_fallback.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
