package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	out  *ssm.GetParameterOutput
	err  error
	last *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.last = in
	return f.out, f.err
}

func strPtr(s string) *string { return &s }

func TestGetParameter(t *testing.T) {
	api := &fakeAPI{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: strPtr("xai-123")}}}
	p, err := NewParamStore(api)
	require.NoError(t, err)

	v, err := p.GetParameter(context.Background(), " /cursorcode/xai_api_key ")
	require.NoError(t, err)
	require.Equal(t, "xai-123", v)
	require.Equal(t, "/cursorcode/xai_api_key", *api.last.Name)
	require.True(t, *api.last.WithDecryption)
}

func TestGetParameterErrors(t *testing.T) {
	_, err := NewParamStore(nil)
	require.Error(t, err)

	p, _ := NewParamStore(&fakeAPI{err: errors.New("denied")})
	_, err = p.GetParameter(context.Background(), "k")
	require.ErrorContains(t, err, "denied")

	_, err = p.GetParameter(context.Background(), "")
	require.Error(t, err)

	p, _ = NewParamStore(&fakeAPI{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{}}})
	_, err = p.GetParameter(context.Background(), "k")
	require.ErrorContains(t, err, "no value")
}

func TestResolveAPIKey(t *testing.T) {
	ctx := context.Background()

	key, err := ResolveAPIKey(ctx, nil, "direct", "/ignored")
	require.NoError(t, err)
	require.Equal(t, "direct", key)

	key, err = ResolveAPIKey(ctx, nil, "", "")
	require.NoError(t, err)
	require.Empty(t, key)

	_, err = ResolveAPIKey(ctx, nil, "", "/param")
	require.Error(t, err)

	p, _ := NewParamStore(&fakeAPI{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: strPtr("from-ssm")}}})
	key, err = ResolveAPIKey(ctx, p, "", "/param")
	require.NoError(t, err)
	require.Equal(t, "from-ssm", key)
}
