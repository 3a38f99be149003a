package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	lastIn *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func paramOutput(value *string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p"), Value: value}}
}

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: paramOutput(strPtr("  https://generator.internal/generate\n"))}
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.GetParameter(context.Background(), " /chat-relay/generator-url ")
	require.NoError(t, err)
	require.Equal(t, "https://generator.internal/generate", v)
	require.Equal(t, "/chat-relay/generator-url", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_WithoutDecryption(t *testing.T) {
	api := &fakeAPI{getOut: paramOutput(strPtr("v"))}
	client, err := New(api, WithDecryption(false))
	require.NoError(t, err)

	_, err = client.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.False(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_MissingValue(t *testing.T) {
	client, err := New(&fakeAPI{getOut: paramOutput(nil)})
	require.NoError(t, err)

	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing value")

	client, err = New(&fakeAPI{getOut: &ssm.GetParameterOutput{}})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
}

func TestGetParameter_BlankValue(t *testing.T) {
	client, err := New(&fakeAPI{getOut: paramOutput(strPtr("   "))})
	require.NoError(t, err)

	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "is empty")
}

func TestGetParameter_APIError(t *testing.T) {
	client, err := New(&fakeAPI{getErr: errors.New("boom")})
	require.NoError(t, err)

	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "boom")
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	client, err := New(&fakeAPI{})
	require.NoError(t, err)

	_, err = client.GetParameter(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}
