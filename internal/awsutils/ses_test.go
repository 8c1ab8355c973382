//go:build unit

package awsutils

import (
	"context"
	"errors"
	"net/mail"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/suite"

	"sms-connector/internal/smtp"
)

type sesClientMock struct {
	err       error
	callCount int
	lastInput *ses.SendRawEmailInput
}

func (m *sesClientMock) SendRawEmail(_ context.Context, params *ses.SendRawEmailInput, _ ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	m.callCount++
	m.lastInput = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendRawEmailOutput{MessageId: aws.String("test-message-id")}, nil
}

func TestSesEmailClientTestSuite(t *testing.T) {
	suite.Run(t, &SesEmailClientTestSuite{})
}

type SesEmailClientTestSuite struct {
	suite.Suite
	mock *sesClientMock
	sut  *SesEmailClient
}

func (suite *SesEmailClientTestSuite) SetupTest() {
	suite.mock = &sesClientMock{}
	suite.sut = &SesEmailClient{
		client:  suite.mock,
		builder: smtp.NewMessageBuilder(mail.Address{Name: "SMS Connector", Address: "relay@example.com"}),
	}
}

func (suite *SesEmailClientTestSuite) TestSendRawMessage() {
	err := suite.sut.Send(context.TODO(), smtp.Message{To: "a@b.com", Subject: "New SMS from BANK", Body: "hello"})
	suite.Require().NoError(err)

	suite.Assert().Equal(1, suite.mock.callCount)
	suite.Assert().Equal("relay@example.com", *suite.mock.lastInput.Source)
	suite.Assert().Equal([]string{"a@b.com"}, suite.mock.lastInput.Destinations)
	suite.Assert().Contains(string(suite.mock.lastInput.RawMessage.Data), "Subject: New SMS from BANK\r\n")
}

func (suite *SesEmailClientTestSuite) TestSendInvalidRecipientNeverCallsSes() {
	err := suite.sut.Send(context.TODO(), smtp.Message{To: "nope", Subject: "s", Body: "b"})
	suite.Require().Error(err)
	suite.Assert().Equal(0, suite.mock.callCount)
}

func (suite *SesEmailClientTestSuite) TestSendApiError() {
	suite.mock.err = errors.New("MessageRejected: Email address is not verified")

	err := suite.sut.Send(context.TODO(), smtp.Message{To: "a@b.com", Subject: "s", Body: "b"})
	suite.Require().EqualError(err, "MessageRejected: Email address is not verified")
}
