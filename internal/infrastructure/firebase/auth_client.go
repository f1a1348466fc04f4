package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

// FirebaseAuthClient turns a credential proof (Firebase ID token) into a
// trusted user ID. It is the only authentication surface the realtime core
// depends on; credential issuance happens elsewhere.
type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

// TestConnection checks that the Firebase Auth backend is reachable.
func (f *FirebaseAuthClient) TestConnection(ctx context.Context) error {
	iter := f.client.Users(ctx, "")
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return err
	}
	return nil
}
