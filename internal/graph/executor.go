package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/metrics"
)

const (
	maxBodyBytes    = 1 << 20
	complexityLimit = 1000
)

// NewServer serves es over POST. Introspection is only answered when enabled.
func NewServer(es graphql.ExecutableSchema, enableIntrospection bool) http.Handler {
	srv := handler.New(es)
	srv.AddTransport(transport.POST{})
	srv.SetErrorPresenter(presentError)
	srv.SetRecoverFunc(recoverResolver)
	srv.Use(extension.FixedComplexityLimit(complexityLimit))
	if enableIntrospection {
		srv.Use(extension.Introspection{})
	}
	return http.MaxBytesHandler(srv, maxBodyBytes)
}

type executableSchema struct {
	schema    *ast.Schema
	queries   map[string]fieldResolver
	mutations map[string]fieldResolver
	metrics   *metrics.Metrics
}

// NewSchema binds the resolver's root fields to the parsed schema.
func NewSchema(r *Resolver, m *metrics.Metrics) graphql.ExecutableSchema {
	return &executableSchema{
		schema:    Schema,
		queries:   r.queryFields(),
		mutations: r.mutationFields(),
		metrics:   m,
	}
}

func (e *executableSchema) Schema() *ast.Schema {
	return e.schema
}

// Complexity keeps gqlgen's default cost: one per field plus its children.
func (e *executableSchema) Complexity(_ context.Context, _, _ string, _ int, _ map[string]any) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)

	var (
		root      *ast.Definition
		resolvers map[string]fieldResolver
	)
	switch opCtx.Operation.Operation {
	case ast.Query:
		root, resolvers = e.schema.Query, e.queries
	case ast.Mutation:
		root, resolvers = e.schema.Mutation, e.mutations
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	first := true
	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false

		ex := &execution{es: e, opCtx: opCtx}
		data, err := json.Marshal(ex.executeRoot(ctx, root, resolvers))
		if err != nil {
			graphql.AddError(ctx, apperror.Wrap(apperror.CodeInternal, err, ""))
			data = []byte("null")
		}
		return &graphql.Response{Data: data}
	}
}

type execution struct {
	es    *executableSchema
	opCtx *graphql.OperationContext
}

// executeRoot resolves root fields in document order; mutations therefore run one after another.
// A failed non-null root field nulls the whole data object.
func (ex *execution) executeRoot(
	ctx context.Context,
	root *ast.Definition,
	resolvers map[string]fieldResolver,
) any {
	out := object{}
	invalid := false

	for _, cf := range graphql.CollectFields(ex.opCtx, ex.opCtx.Operation.SelectionSet, []string{root.Name}) {
		key := responseKey(cf.Field)
		fieldCtx := graphql.WithFieldContext(ctx, &graphql.FieldContext{
			Object:     root.Name,
			Field:      cf,
			Args:       cf.ArgumentMap(ex.opCtx.Variables),
			IsMethod:   true,
			IsResolver: true,
		})

		if cf.Name == "__typename" {
			out = append(out, member{key, root.Name})
			continue
		}

		value, err := ex.resolveField(fieldCtx, resolvers, cf)
		if !strings.HasPrefix(cf.Name, "__") {
			ex.es.metrics.GraphQLField(cf.Name, err)
		}
		if err != nil {
			graphql.AddError(fieldCtx, err)
			if cf.Definition != nil && cf.Definition.Type.NonNull {
				invalid = true
			}
			out = append(out, member{key, nil})
			continue
		}
		out = append(out, member{key, value})
	}

	if invalid {
		return nil
	}
	return out
}

func (ex *execution) resolveField(
	ctx context.Context,
	resolvers map[string]fieldResolver,
	cf graphql.CollectedField,
) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, graphql.Recover(ctx, r)
		}
	}()

	switch cf.Name {
	case "__schema":
		if ex.opCtx.DisableIntrospection {
			return nil, apperror.Forbidden("introspection disabled")
		}
		return ex.introspect(reflect.ValueOf(introspection.WrapSchema(ex.es.schema)), cf.Selections), nil
	case "__type":
		if ex.opCtx.DisableIntrospection {
			return nil, apperror.Forbidden("introspection disabled")
		}
		name, _ := graphql.GetFieldContext(ctx).Args["name"].(string)
		def := ex.es.schema.Types[name]
		if def == nil {
			return nil, nil
		}
		return ex.introspect(reflect.ValueOf(introspection.WrapTypeFromDef(ex.es.schema, def)), cf.Selections), nil
	}

	policy, ok := Permissions[cf.Name]
	if !ok {
		return nil, apperror.Forbidden("Forbidden")
	}
	if err := policy.Allow(auth.PrincipalFrom(ctx)); err != nil {
		return nil, err
	}

	resolve, ok := resolvers[cf.Name]
	if !ok {
		return nil, apperror.Newf(apperror.CodeInternal, "no resolver for %s", cf.Name)
	}

	raw, err := resolve(ctx, graphql.GetFieldContext(ctx).Args)
	if err != nil {
		return nil, err
	}

	plain, err := toPlain(raw)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "")
	}
	return ex.project(plain, cf.Selections, fieldType(cf.Field)), nil
}

// toPlain turns resolver results into maps, slices and scalars keyed by their json names.
func toPlain(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return out, nil
}

/* ---------- errors ---------- */

// presentError gives resolver errors their public message and taxonomy code.
// Parse and validation errors from gqlgen pass through with their own codes.
func presentError(ctx context.Context, err error) *gqlerror.Error {
	gqlErr := graphql.DefaultErrorPresenter(ctx, err)
	if gqlErr.Err == nil {
		return gqlErr
	}

	cause := gqlErr.Err
	code := apperror.CodeOf(cause)
	gqlErr.Message = apperror.PublicMessage(cause)
	if gqlErr.Extensions == nil {
		gqlErr.Extensions = map[string]any{}
	}
	gqlErr.Extensions["code"] = string(code)
	if typed := apperror.As(cause); typed != nil && typed.Details() != nil {
		gqlErr.Extensions["issues"] = typed.Details()
	}

	if apperror.HTTPStatus(code) >= http.StatusInternalServerError {
		logger.FromCtx(ctx).Error("graphql field failed",
			zap.String("layer", "graph"),
			zap.String("path", gqlErr.Path.String()),
			zap.Error(cause),
		)
	}
	return gqlErr
}

func recoverResolver(ctx context.Context, r any) error {
	logger.FromCtx(ctx).Error("graphql resolver panicked",
		zap.String("layer", "graph"),
		zap.Any("panic", r),
		zap.Stack("stack"),
	)
	return apperror.Newf(apperror.CodeInternal, "panic: %v", r)
}

/* ---------- selection ---------- */

func fieldType(f *ast.Field) string {
	if f.Definition == nil || f.Definition.Type == nil {
		return ""
	}
	return f.Definition.Type.Name()
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// satisfies lists the names fragments may target for an object of typeName.
func (ex *execution) satisfies(typeName string) []string {
	out := []string{typeName}
	def := ex.es.schema.Types[typeName]
	if def == nil {
		return out
	}
	out = append(out, def.Interfaces...)
	for _, t := range ex.es.schema.Types {
		if t.Kind == ast.Union && slices.Contains(t.Types, typeName) {
			out = append(out, t.Name)
		}
	}
	return out
}

// project keeps only the selected fields of v, in selection order.
func (ex *execution) project(v any, set ast.SelectionSet, typeName string) any {
	if v == nil || len(set) == 0 {
		return v
	}

	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ex.project(item, set, typeName)
		}
		return out
	case map[string]any:
		out := object{}
		for _, cf := range graphql.CollectFields(ex.opCtx, set, ex.satisfies(typeName)) {
			key := responseKey(cf.Field)
			if cf.Name == "__typename" {
				out = append(out, member{key, typeName})
				continue
			}
			out = append(out, member{key, ex.project(val[cf.Name], cf.Selections, fieldType(cf.Field))})
		}
		return out
	default:
		return v
	}
}

// introspect walks gqlgen's introspection model. Each selected name is answered by the
// exported method or field of the same name; includeDeprecated is passed to methods taking a bool.
func (ex *execution) introspect(v reflect.Value, set ast.SelectionSet) any {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if len(set) == 0 {
			return ex.introspect(v.Elem(), set)
		}
		return ex.introspectObject(v, set)
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = ex.introspect(v.Index(i).Addr(), set)
		}
		return out
	case reflect.Struct:
		if len(set) == 0 {
			return nil
		}
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		return ex.introspectObject(ptr, set)
	default:
		return v.Interface()
	}
}

func (ex *execution) introspectObject(ptr reflect.Value, set ast.SelectionSet) any {
	typeName := "__" + ptr.Elem().Type().Name()
	out := object{}
	for _, cf := range graphql.CollectFields(ex.opCtx, set, []string{typeName}) {
		key := responseKey(cf.Field)
		if cf.Name == "__typename" {
			out = append(out, member{key, typeName})
			continue
		}
		out = append(out, member{key, ex.introspect(ex.lookup(ptr, cf), cf.Selections)})
	}
	return out
}

func (ex *execution) lookup(ptr reflect.Value, cf graphql.CollectedField) reflect.Value {
	name := strings.ToUpper(cf.Name[:1]) + cf.Name[1:]

	if m := ptr.MethodByName(name); m.IsValid() {
		var in []reflect.Value
		if m.Type().NumIn() == 1 && m.Type().In(0).Kind() == reflect.Bool {
			include, _ := cf.ArgumentMap(ex.opCtx.Variables)["includeDeprecated"].(bool)
			in = append(in, reflect.ValueOf(include))
		}
		if m.Type().NumIn() != len(in) || m.Type().NumOut() == 0 {
			return reflect.Value{}
		}
		return m.Call(in)[0]
	}

	if f := ptr.Elem().FieldByName(name); f.IsValid() && f.CanInterface() {
		return f
	}
	return reflect.Value{}
}

/* ---------- ordered output ---------- */

type member struct {
	key   string
	value any
}

// object is a JSON object that keeps the order fields were requested in.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
